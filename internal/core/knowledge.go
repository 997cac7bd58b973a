package core

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/trackhub/trackhub/internal/youtrack"
)

const (
	articleListFields = "id,idReadable,summary,project(id,shortName),updated"
	articleFields     = "id,idReadable,summary,content,project(id,name,shortName),updated"
)

// ListArticles returns knowledge-base articles in the scoped project.
func (s *Service) ListArticles(ctx context.Context, project string, top int) ([]youtrack.Article, error) {
	id, err := s.resolver.Resolve(project)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"fields": {articleListFields},
		"$top":   {strconv.Itoa(clampTop(top))},
	}
	var articles []youtrack.Article
	if err := s.backend.Get(ctx, "admin/projects/"+url.PathEscape(id)+"/articles", params, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// GetArticle fetches one article with its content. With an enforced project
// configured an article belonging to another project is refused.
func (s *Service) GetArticle(ctx context.Context, articleID string) (*youtrack.Article, error) {
	articleID = strings.TrimSpace(articleID)
	if articleID == "" {
		return nil, &ValidationError{Field: "articleId", Reason: "is required"}
	}
	var article youtrack.Article
	params := url.Values{"fields": {articleFields}}
	if err := s.backend.Get(ctx, "articles/"+url.PathEscape(articleID), params, &article); err != nil {
		return nil, err
	}

	enforced := s.resolver.Enforced()
	if enforced != "" && article.Project != nil &&
		!strings.EqualFold(article.Project.ID, enforced) &&
		!strings.EqualFold(article.Project.ShortName, enforced) {
		s.logger.Warn("article outside enforced scope requested",
			"article", article.IDReadable,
			"enforced", enforced)
		return nil, &ScopeViolationError{Provided: article.Project.ShortName, Enforced: enforced}
	}
	return &article, nil
}
