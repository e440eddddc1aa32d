package loader

import (
	"context"
	"fmt"

	"github.com/Sternrassler/uk-petitions/pkg/client"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/rs/zerolog"
)

// PageFetcher loads one page of petition summaries.
type PageFetcher interface {
	FetchPage(ctx context.Context, page Page) (*petition.Page, error)
}

// ItemFetcher loads the detail record of one petition.
type ItemFetcher interface {
	FetchPetition(ctx context.Context, id petition.ID) (*petition.Raw, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, page Page) (*petition.Page, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, page Page) (*petition.Page, error) {
	return f(ctx, page)
}

// ItemFetcherFunc adapts a function to ItemFetcher.
type ItemFetcherFunc func(ctx context.Context, id petition.ID) (*petition.Raw, error)

// FetchPetition calls f.
func (f ItemFetcherFunc) FetchPetition(ctx context.Context, id petition.ID) (*petition.Raw, error) {
	return f(ctx, id)
}

// JSONGetter fetches a path and decodes its JSON body. *client.Client
// implements it.
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, v any) error
}

// HTTPLoader loads pages and petitions from the petitions API.
type HTTPLoader struct {
	api    JSONGetter
	logger zerolog.Logger
}

// NewHTTPLoader creates a loader on top of api.
func NewHTTPLoader(api JSONGetter, logger zerolog.Logger) *HTTPLoader {
	return &HTTPLoader{api: api, logger: logger}
}

// FetchPage implements PageFetcher.
func (l *HTTPLoader) FetchPage(ctx context.Context, page Page) (*petition.Page, error) {
	path, err := page.Path()
	if err != nil {
		return nil, err
	}

	l.logger.Trace().Str("page", path).Msg("Loading page")

	var out petition.Page
	if err := l.api.GetJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("load page %s: %w", path, err)
	}
	return &out, nil
}

// FetchPetition implements ItemFetcher.
func (l *HTTPLoader) FetchPetition(ctx context.Context, id petition.ID) (*petition.Raw, error) {
	path := DetailPath(id)
	l.logger.Trace().Int64("petition_id", int64(id)).Msg("Loading petition detail")

	var out petition.Detail
	if err := l.api.GetJSON(ctx, path, &out); err != nil {
		if client.IsNotFound(err) {
			l.logger.Debug().Int64("petition_id", int64(id)).Msg("Petition vanished before its detail was loaded")
		}
		return nil, fmt.Errorf("load petition %d: %w", id, err)
	}
	if out.Data.ID == 0 {
		out.Data.ID = id
	}
	return &out.Data, nil
}
