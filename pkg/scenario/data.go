package scenario

import (
	"embed"
	"fmt"

	"github.com/bookqa/bookqa/pkg/fileutil"
)

//go:embed data/test_data.json
var dataFS embed.FS

// DataFile is the embedded test data path, also used as attachment name.
const DataFile = "data/test_data.json"

// Book is a catalog entry used by the suite.
type Book struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Price  float64 `json:"price"`
}

// User is a test account description.
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// TestData is the suite's fixed data.
type TestData struct {
	Books         []Book   `json:"books"`
	SearchQueries []string `json:"search_queries"`
	TestUsers     []User   `json:"test_users"`
}

// LoadTestData decodes the embedded test data.
func LoadTestData() (*TestData, error) {
	var d TestData
	if err := fileutil.ReadJSONFS(dataFS, DataFile, &d); err != nil {
		return nil, fmt.Errorf("load test data: %w", err)
	}
	return &d, nil
}

// rawTestData returns the embedded file as is.
func rawTestData() ([]byte, error) {
	return dataFS.ReadFile(DataFile)
}
