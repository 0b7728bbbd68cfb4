package scenario

import (
	"context"
	"strings"
)

const (
	epicUI          = "UI тестирование"
	featureMainPage = "Главная страница"
	featureSearch   = "Поиск"
	featureCart     = "Корзина"
)

// uiSearchQueries are the parametrised UI search variants.
var uiSearchQueries = []string{"Толстой", "Python", "Детективы"}

// noResultsQuery matches nothing in the store.
const noResultsQuery = "asdfghjklqwertyuiop12345"

func uiScenarios() []Scenario {
	list := []Scenario{
		{
			Name:     "Проверка загрузки главной страницы",
			Epic:     epicUI,
			Feature:  featureMainPage,
			Story:    "Открытие главной страницы",
			Severity: SeverityCritical,
			Tags:     []string{"smoke", "ui"},
			Kind:     KindUI,
			Run:      mainPageLoads,
		},
		{
			Name:     "Проверка отображения книг на главной странице",
			Epic:     epicUI,
			Feature:  featureMainPage,
			Story:    "Главная страница",
			Severity: SeverityNormal,
			Tags:     []string{"smoke", "ui"},
			Kind:     KindUI,
			Run:      booksOnMainPage,
		},
	}

	for _, q := range uiSearchQueries {
		query := q
		list = append(list, Scenario{
			Name:     "Поиск книги по запросу '" + query + "'",
			Epic:     epicUI,
			Feature:  featureSearch,
			Story:    "Поиск книг",
			Severity: SeverityCritical,
			Tags:     []string{"smoke", "regression", "ui"},
			Kind:     KindUI,
			Params:   []Param{{Name: "search_query", Value: query}},
			Run: func(ctx context.Context, env *Env) error {
				return searchBooks(ctx, env, query)
			},
		})
	}

	return append(list,
		Scenario{
			Name:     "Поиск несуществующей книги",
			Epic:     epicUI,
			Feature:  featureSearch,
			Story:    "Поиск книг",
			Severity: SeverityNormal,
			Tags:     []string{"regression", "ui"},
			Kind:     KindUI,
			Run:      searchNoResults,
		},
		Scenario{
			Name:     "Открытие книги из результатов поиска",
			Epic:     epicUI,
			Feature:  featureSearch,
			Story:    "Поиск книг",
			Severity: SeverityCritical,
			Tags:     []string{"smoke", "ui"},
			Kind:     KindUI,
			Run:      openBookFromSearch,
		},
		Scenario{
			Name:     "Проверка пустой корзины",
			Epic:     epicUI,
			Feature:  featureCart,
			Story:    "Пустая корзина",
			Severity: SeverityCritical,
			Tags:     []string{"smoke", "ui"},
			Kind:     KindUI,
			Run:      emptyCart,
		},
		Scenario{
			Name:     "Добавление книги в корзину через UI",
			Epic:     epicUI,
			Feature:  featureCart,
			Story:    "Добавление в корзину",
			Severity: SeverityCritical,
			Tags:     []string{"smoke", "regression", "ui"},
			Kind:     KindUI,
			Run:      addBookToCart,
		},
		Scenario{
			Name:     "Переход в корзину с главной страницы",
			Epic:     epicUI,
			Feature:  featureCart,
			Story:    "Навигация",
			Severity: SeverityNormal,
			Tags:     []string{"ui", "regression"},
			Kind:     KindUI,
			Run:      navigateToCart,
		},
	)
}

func openMain(ctx context.Context, env *Env) error {
	return env.Step("Открытие главной страницы", func() error {
		return env.Pages.Main.Open(ctx)
	})
}

func mainPageLoads(ctx context.Context, env *Env) error {
	if err := openMain(ctx, env); err != nil {
		return err
	}
	return env.Step("Проверка видимости логотипа", func() error {
		return env.Checkf(env.Pages.Main.IsLogoVisible(ctx), "Логотип не отображается")
	})
}

func booksOnMainPage(ctx context.Context, env *Env) error {
	if err := openMain(ctx, env); err != nil {
		return err
	}
	return env.Step("Проверка количества книг", func() error {
		n := env.Pages.Main.BooksCount(ctx).ValueOr(0)
		return env.Checkf(n > 0, "Книги не отображаются на главной странице")
	})
}

func searchBooks(ctx context.Context, env *Env, query string) error {
	if err := openMain(ctx, env); err != nil {
		return err
	}
	if err := env.Step("Поиск книги по запросу: "+query, func() error {
		return env.Pages.Main.SearchBook(ctx, query)
	}); err != nil {
		return err
	}
	return env.Step("Проверка результатов поиска", func() error {
		n := env.Pages.Search.ResultsCount(ctx).ValueOr(0)
		return env.Checkf(n > 0, "Не найдено результатов по запросу: %s", query)
	})
}

func searchNoResults(ctx context.Context, env *Env) error {
	if err := openMain(ctx, env); err != nil {
		return err
	}
	if err := env.Step("Поиск несуществующей книги", func() error {
		return env.Pages.Main.SearchBook(ctx, noResultsQuery)
	}); err != nil {
		return err
	}
	return env.Step("Проверка отсутствия результатов", func() error {
		return env.Checkf(!env.Pages.Search.HasResults(ctx), "Найдены результаты для несуществующей книги")
	})
}

// searchAndOpenFirst searches for query and opens the first result.
func searchAndOpenFirst(ctx context.Context, env *Env, query string) error {
	if err := env.Step("Поиск книги", func() error {
		return env.Pages.Main.SearchBook(ctx, query)
	}); err != nil {
		return err
	}
	if err := env.Step("Проверка наличия результатов", func() error {
		n := env.Pages.Search.ResultsCount(ctx).ValueOr(0)
		return env.Checkf(n > 0, "Результаты поиска не найдены")
	}); err != nil {
		return err
	}
	if err := env.Step("Клик по первой книге", func() error {
		return env.Pages.Search.ClickFirstBook(ctx)
	}); err != nil {
		return err
	}
	return env.Step("Проверка открытия страницы книги", func() error {
		return env.Checkf(env.Pages.Book.IsLoaded(ctx), "Страница книги не загрузилась")
	})
}

func openBookFromSearch(ctx context.Context, env *Env) error {
	if err := openMain(ctx, env); err != nil {
		return err
	}
	return searchAndOpenFirst(ctx, env, "Пушкин")
}

func emptyCart(ctx context.Context, env *Env) error {
	cart := env.Pages.Cart
	if err := env.Step("Открытие страницы корзины", func() error {
		return cart.Open(ctx)
	}); err != nil {
		return err
	}
	if err := env.Step("Проверка заголовка страницы", func() error {
		title := cart.PageTitle(ctx)
		if err := title.Err(); err != nil {
			return err
		}
		return env.Checkf(strings.TrimSpace(title.Value) == "Корзина", "Неверный заголовок страницы: %q", title.Value)
	}); err != nil {
		return err
	}
	if err := env.Step("Проверка отображения сообщения о пустой корзине", func() error {
		return env.Checkf(cart.IsEmptyCartVisible(ctx), "Сообщение о пустой корзине не отображается")
	}); err != nil {
		return err
	}
	return env.Step("Проверка текста сообщения", func() error {
		title := cart.EmptyCartTitle(ctx)
		if err := title.Err(); err != nil {
			return err
		}
		return env.Checkf(strings.TrimSpace(title.Value) == "Корзина пуста", "Неверный текст сообщения: %q", title.Value)
	})
}

func addBookToCart(ctx context.Context, env *Env) error {
	if err := openMain(ctx, env); err != nil {
		return err
	}
	if err := searchAndOpenFirst(ctx, env, "Детективы"); err != nil {
		return err
	}
	if err := env.Step("Добавление книги в корзину", func() error {
		return env.Pages.Book.AddToCart(ctx)
	}); err != nil {
		return err
	}
	if err := env.Step("Переход в корзину", func() error {
		return env.Pages.Cart.Open(ctx)
	}); err != nil {
		return err
	}
	return env.Step("Проверка что корзина не пустая", func() error {
		return env.Checkf(env.Pages.Cart.IsNotEmpty(ctx), "Корзина пустая после добавления книги")
	})
}

func navigateToCart(ctx context.Context, env *Env) error {
	if err := openMain(ctx, env); err != nil {
		return err
	}
	if err := env.Step("Клик по иконке корзины", func() error {
		return env.Pages.Main.GoToCart(ctx)
	}); err != nil {
		return err
	}
	return env.Step("Проверка открытия страницы корзины", func() error {
		return env.Checkf(env.Pages.Cart.IsOpen(ctx), "Страница корзины не открылась")
	})
}
