package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/fileutil"
)

const (
	epicFiles    = "Тестирование работы с файлами"
	featureFiles = "Файловые операции"
)

var bookFields = []string{"id", "title", "author", "price"}

func fileScenarios() []Scenario {
	list := []Scenario{
		{
			Name:     "Чтение JSON файла с тестовыми данными",
			Story:    "JSON файлы",
			Severity: SeverityNormal,
			Run:      readTestData,
		},
		{
			Name:     "Запись и чтение JSON файла",
			Story:    "JSON файлы",
			Severity: SeverityNormal,
			Run:      writeAndReadJSON,
		},
		{
			Name:     "Запись и чтение CSV файла",
			Story:    "CSV файлы",
			Severity: SeverityNormal,
			Run:      csvRoundTrip,
		},
		{
			Name:     "Создание и чтение ZIP архива",
			Story:    "ZIP архивы",
			Severity: SeverityNormal,
			Run:      zipRoundTrip,
		},
	}
	for i := 0; i < 3; i++ {
		idx := i
		list = append(list, Scenario{
			Name:     "Чтение книг из JSON с параметризацией",
			Story:    "Параметризация",
			Severity: SeverityNormal,
			Params:   []Param{{Name: "book_index", Value: strconv.Itoa(idx)}},
			Run: func(ctx context.Context, env *Env) error {
				return readBookAt(ctx, env, idx)
			},
		})
	}
	for i := range list {
		list[i].Epic = epicFiles
		list[i].Feature = featureFiles
		list[i].Tags = []string{"files", "regression"}
		list[i].Kind = KindFiles
	}
	return list
}

// readDataMap decodes the embedded test data generically so field presence
// can be checked.
func readDataMap(env *Env) (map[string]interface{}, error) {
	var data map[string]interface{}
	err := env.Step("Чтение JSON файла", func() error {
		raw, err := rawTestData()
		if err != nil {
			return err
		}
		if err := env.Attach("test_data.json", core.ContentTypeJSON, raw); err != nil {
			return err
		}
		return fileutil.ReadJSONFS(dataFS, DataFile, &data)
	})
	return data, err
}

func checkBookFields(env *Env, book map[string]interface{}) error {
	for _, f := range bookFields {
		if _, ok := book[f]; !ok {
			return env.Checkf(false, "Отсутствует поле '%s'", f)
		}
	}
	return nil
}

func readTestData(_ context.Context, env *Env) error {
	data, err := readDataMap(env)
	if err != nil {
		return err
	}
	if err := env.Step("Проверка структуры данных", func() error {
		for _, key := range []string{"books", "test_users"} {
			if _, ok := data[key]; !ok {
				return env.Checkf(false, "Отсутствует ключ '%s'", key)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if err := env.Step("Проверка количества книг", func() error {
		typed, err := LoadTestData()
		if err != nil {
			return err
		}
		return env.Checkf(len(typed.Books) > 0, "Список книг пустой")
	}); err != nil {
		return err
	}
	return env.Step("Проверка полей книги", func() error {
		books, _ := data["books"].([]interface{})
		if len(books) == 0 {
			return env.Checkf(false, "Список книг пустой")
		}
		first, _ := books[0].(map[string]interface{})
		return checkBookFields(env, first)
	})
}

func writeAndReadJSON(_ context.Context, env *Env) error {
	dir, err := env.TempDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "cart.json")
	want := map[string]interface{}{
		"cart_items": []interface{}{
			map[string]interface{}{"id": float64(1), "title": "Test Book 1"},
			map[string]interface{}{"id": float64(2), "title": "Test Book 2"},
		},
	}

	if err := env.Step("Запись данных в JSON файл", func() error {
		return fileutil.WriteJSON(path, want)
	}); err != nil {
		return err
	}
	var got map[string]interface{}
	if err := env.Step("Чтение данных из JSON файла", func() error {
		return fileutil.ReadJSON(path, &got)
	}); err != nil {
		return err
	}
	return env.Step("Проверка что данные совпадают", func() error {
		return env.Checkf(reflect.DeepEqual(got, want), "Данные не совпадают: %v", got)
	})
}

func csvRoundTrip(_ context.Context, env *Env) error {
	dir, err := env.TempDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "books.csv")
	want := []map[string]string{
		{"id": "1", "title": "Book 1", "author": "Author 1"},
		{"id": "2", "title": "Book 2", "author": "Author 2"},
	}

	if err := env.Step("Запись данных в CSV файл", func() error {
		return fileutil.WriteCSV(path, want, []string{"id", "title", "author"})
	}); err != nil {
		return err
	}
	var got []map[string]string
	if err := env.Step("Чтение данных из CSV файла", func() error {
		got, err = fileutil.ReadCSV(path)
		return err
	}); err != nil {
		return err
	}
	if err := env.Step("Проверка количества записей", func() error {
		return env.Checkf(len(got) == len(want), "Количество записей не совпадает: %d", len(got))
	}); err != nil {
		return err
	}
	return env.Step("Проверка содержимого", func() error {
		for i := range want {
			if !reflect.DeepEqual(got[i], want[i]) {
				return env.Checkf(false, "Строка %d не совпадает", i)
			}
		}
		return nil
	})
}

func zipRoundTrip(_ context.Context, env *Env) error {
	dir, err := env.TempDir()
	if err != nil {
		return err
	}
	var files []string
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, fmt.Sprintf("file%d.txt", i))
		if err := os.WriteFile(p, []byte(fmt.Sprintf("Test content %d", i)), 0o600); err != nil {
			return err
		}
		files = append(files, p)
	}
	zipPath := filepath.Join(dir, "archive.zip")
	extractDir := filepath.Join(dir, "extracted")

	if err := env.Step("Создание ZIP архива", func() error {
		return fileutil.CreateZip(zipPath, files)
	}); err != nil {
		return err
	}
	if err := env.Step("Проверка содержимого архива", func() error {
		names, err := fileutil.ListZip(zipPath)
		if err != nil {
			return err
		}
		return env.Checkf(len(names) == 3, "Ожидалось 3 файла, получено %d", len(names))
	}); err != nil {
		return err
	}
	if err := env.Step("Извлечение архива", func() error {
		return fileutil.ExtractZip(zipPath, extractDir)
	}); err != nil {
		return err
	}
	return env.Step("Проверка извлеченных файлов", func() error {
		entries, err := os.ReadDir(extractDir)
		if err != nil {
			return err
		}
		return env.Checkf(len(entries) == 3, "Не все файлы извлечены")
	})
}

func readBookAt(_ context.Context, env *Env, idx int) error {
	data, err := readDataMap(env)
	if err != nil {
		return err
	}
	var book map[string]interface{}
	if err := env.Step(fmt.Sprintf("Получение книги с индексом %d", idx), func() error {
		books, _ := data["books"].([]interface{})
		if idx >= len(books) {
			return env.Checkf(false, "Нет книги с индексом %d", idx)
		}
		book, _ = books[idx].(map[string]interface{})
		return nil
	}); err != nil {
		return err
	}
	if err := env.Step("Проверка полей книги", func() error {
		return checkBookFields(env, book)
	}); err != nil {
		return err
	}
	return env.Step("Проверка что цена > 0", func() error {
		price, _ := book["price"].(float64)
		return env.Checkf(price > 0, "Цена книги должна быть больше 0")
	})
}
