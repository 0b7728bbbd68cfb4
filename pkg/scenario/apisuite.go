package scenario

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bookqa/bookqa/pkg/api"
)

const (
	epicAPI          = "API тестирование"
	featureCartAPI   = "Корзина API"
	featureSearchAPI = "Поиск API"
)

// TestBookID is a real catalog id (Пелевин, "Левый путь").
const TestBookID int64 = 72456610

var (
	apiSearchQueries = []string{"детективы", "Python", "Толстой"}
	apiSearchLimits  = []int{5, 10, 24}
)

func apiScenarios() []Scenario {
	list := []Scenario{
		{
			Name:     "Получение корзины",
			Epic:     epicAPI,
			Feature:  featureCartAPI,
			Story:    "GET /cart/arts",
			Severity: SeverityCritical,
			Tags:     []string{"api", "smoke"},
			Kind:     KindAPI,
			Run:      getCart,
		},
		{
			Name:     "Добавление книги в корзину",
			Epic:     epicAPI,
			Feature:  featureCartAPI,
			Story:    "PUT /cart/arts/add",
			Severity: SeverityCritical,
			Tags:     []string{"api", "smoke"},
			Kind:     KindAPI,
			Run: func(ctx context.Context, env *Env) error {
				return addToCart(ctx, env, TestBookID)
			},
		},
		{
			Name:     "Удаление книги из корзины",
			Epic:     epicAPI,
			Feature:  featureCartAPI,
			Story:    "PUT /cart/arts/remove",
			Severity: SeverityNormal,
			Tags:     []string{"api", "regression"},
			Kind:     KindAPI,
			Run: func(ctx context.Context, env *Env) error {
				return addAndRemove(ctx, env, TestBookID)
			},
		},
		{
			Name:     "Добавление и очистка корзины",
			Epic:     epicAPI,
			Feature:  featureCartAPI,
			Story:    "Полный цикл",
			Severity: SeverityCritical,
			Tags:     []string{"api", "regression"},
			Kind:     KindAPI,
			Run:      addAndClearCart,
		},
		{
			Name:     "Добавление и удаление книги " + strconv.FormatInt(TestBookID, 10),
			Epic:     epicAPI,
			Feature:  featureCartAPI,
			Story:    "Параметризация",
			Severity: SeverityNormal,
			Tags:     []string{"api", "regression"},
			Kind:     KindAPI,
			Params:   []Param{{Name: "art_id", Value: strconv.FormatInt(TestBookID, 10)}},
			Run: func(ctx context.Context, env *Env) error {
				return addAndRemove(ctx, env, TestBookID)
			},
		},
	}

	for _, q := range apiSearchQueries {
		query := q
		list = append(list, Scenario{
			Name:     "Поиск книг по запросу '" + query + "'",
			Epic:     epicAPI,
			Feature:  featureSearchAPI,
			Story:    "GET /search",
			Severity: SeverityCritical,
			Tags:     []string{"api", "smoke"},
			Kind:     KindAPI,
			Params:   []Param{{Name: "query", Value: query}},
			Run: func(ctx context.Context, env *Env) error {
				return searchAPI(ctx, env, query)
			},
		})
	}

	for _, l := range apiSearchLimits {
		limit := l
		list = append(list, Scenario{
			Name:     "Поиск с лимитом результатов",
			Epic:     epicAPI,
			Feature:  featureSearchAPI,
			Story:    "GET /search",
			Severity: SeverityNormal,
			Tags:     []string{"api", "regression"},
			Kind:     KindAPI,
			Params:   []Param{{Name: "limit", Value: strconv.Itoa(limit)}},
			Run: func(ctx context.Context, env *Env) error {
				return searchWithLimit(ctx, env, limit)
			},
		})
	}

	return append(list, Scenario{
		Name:     "Поиск с пагинацией",
		Epic:     epicAPI,
		Feature:  featureSearchAPI,
		Story:    "GET /search",
		Severity: SeverityNormal,
		Tags:     []string{"api", "regression"},
		Kind:     KindAPI,
		Run:      searchWithPagination,
	})
}

// call runs a request as a step and checks its status.
func call(env *Env, name string, do func() (*api.Response, error), want ...int) (*api.Response, error) {
	var resp *api.Response
	err := env.Step(name, func() error {
		var err error
		resp, err = do()
		if err != nil {
			return err
		}
		return resp.ExpectStatus(want...)
	})
	return resp, err
}

func getCart(ctx context.Context, env *Env) error {
	_, err := call(env, "Получение корзины", func() (*api.Response, error) {
		return env.API.GetCart(ctx)
	}, http.StatusOK)
	return err
}

func addToCart(ctx context.Context, env *Env, id int64) error {
	_, err := call(env, fmt.Sprintf("Добавление книги %d в корзину", id), func() (*api.Response, error) {
		return env.API.AddToCart(ctx, id)
	}, http.StatusOK, http.StatusCreated)
	return err
}

func addAndRemove(ctx context.Context, env *Env, id int64) error {
	if err := addToCart(ctx, env, id); err != nil {
		return err
	}
	_, err := call(env, fmt.Sprintf("Удаление книги %d из корзины", id), func() (*api.Response, error) {
		return env.API.RemoveFromCart(ctx, id)
	}, http.StatusOK, http.StatusNoContent)
	return err
}

func addAndClearCart(ctx context.Context, env *Env) error {
	if err := addToCart(ctx, env, TestBookID); err != nil {
		return err
	}
	if _, err := call(env, "Очистка корзины", func() (*api.Response, error) {
		return env.API.ClearCart(ctx)
	}, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}
	return env.Step("Проверка что корзина пуста", func() error {
		resp, err := env.API.GetCart(ctx)
		if err != nil {
			return err
		}
		if err := resp.ExpectStatus(http.StatusOK); err != nil {
			return err
		}
		return resp.Validate(api.EmptyCartSchema)
	})
}

func searchAPI(ctx context.Context, env *Env, query string) error {
	resp, err := call(env, "Поиск книг по запросу: "+query, func() (*api.Response, error) {
		return env.API.SearchBooks(ctx, query, 0, 0)
	}, http.StatusOK)
	if err != nil {
		return err
	}
	return env.Step("Проверка что есть результаты", func() error {
		return env.Checkf(api.HasSearchPayload(resp.Body), "Неожиданная структура ответа")
	})
}

func searchWithLimit(ctx context.Context, env *Env, limit int) error {
	_, err := call(env, fmt.Sprintf("Поиск с лимитом %d", limit), func() (*api.Response, error) {
		return env.API.SearchBooks(ctx, "книга", limit, 0)
	}, http.StatusOK)
	return err
}

func searchWithPagination(ctx context.Context, env *Env) error {
	if _, err := call(env, "Поиск первой страницы", func() (*api.Response, error) {
		return env.API.SearchBooks(ctx, "роман", 10, 0)
	}, http.StatusOK); err != nil {
		return err
	}
	_, err := call(env, "Поиск второй страницы", func() (*api.Response, error) {
		return env.API.SearchBooks(ctx, "роман", 10, 10)
	}, http.StatusOK)
	return err
}
