package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
	"github.com/OFFIS-RIT/wikigraph/pkg/store"
)

// edgeLimit caps how many outbound links one page renders.
const edgeLimit = 1000

func IndexHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", nil)
}

// GetArticleHandler renders one article with its outbound links. The article
// id is derived from the name, so lookups only work under the content-hash
// identifier policy.
func GetArticleHandler(s store.Store, assigner *graph.Assigner) echo.HandlerFunc {
	type request struct {
		Name string `query:"name" validate:"required"`
	}

	type linkView struct {
		ID   string
		Name string
	}

	type articleView struct {
		Name      string
		ID        string
		LinkCount int64
		Links     []linkView
		Truncated bool
	}

	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		ctx := c.Request().Context()

		id, err := assigner.Assign(req.Name)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		article, err := s.GetArticle(ctx, id)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if article == nil {
			return c.Render(http.StatusNotFound, "not_found.html", map[string]string{
				"Name": req.Name,
			})
		}

		count, err := s.CountOutboundLinks(ctx, id)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		links, err := s.GetOutboundLinks(ctx, id, edgeLimit)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		view := articleView{
			Name:      article.Name,
			ID:        article.ID.String(),
			LinkCount: count,
			Truncated: count > int64(len(links)),
		}
		for _, link := range links {
			view.Links = append(view.Links, linkView{ID: link.ID.String(), Name: link.Name})
		}

		return c.Render(http.StatusOK, "article.html", view)
	}
}
