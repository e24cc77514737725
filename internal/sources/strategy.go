package sources

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// Strategy is one way of fetching publications from a source. Sources that
// know more than one way to phrase a search (a precise institution filter, a
// looser free-text query) expose each as a named strategy.
type Strategy struct {
	// Name identifies the strategy in logs.
	Name string

	// Run executes the search.
	Run func(ctx context.Context) ([]*domain.Paper, error)
}

// FirstNonEmpty runs strategies in order and returns the results of the first
// one that yields any publications. A strategy that fails or comes back empty
// is logged and skipped; later strategies are not consulted once one has
// produced results, so a precise strategy listed first shadows a looser
// fallback.
//
// If every strategy fails, the joined errors are returned. If every strategy
// succeeds but none produces results, the return is an empty slice and a nil
// error.
func FirstNonEmpty(ctx context.Context, logger zerolog.Logger, strategies []Strategy) ([]*domain.Paper, error) {
	var errs []error

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		papers, err := s.Run(ctx)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("strategy", s.Name).
				Msg("search strategy failed, trying next")
			errs = append(errs, err)
			continue
		}

		if len(papers) > 0 {
			logger.Debug().
				Str("strategy", s.Name).
				Int("papers", len(papers)).
				Msg("search strategy produced results")
			return papers, nil
		}

		logger.Debug().
			Str("strategy", s.Name).
			Msg("search strategy returned no results, trying next")
	}

	if len(errs) == len(strategies) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []*domain.Paper{}, nil
}
