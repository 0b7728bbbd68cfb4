package scenario

// Catalog returns the whole suite in a stable order: UI, API, files.
func Catalog() []Scenario {
	var list []Scenario
	list = append(list, uiScenarios()...)
	list = append(list, apiScenarios()...)
	list = append(list, fileScenarios()...)
	return list
}
