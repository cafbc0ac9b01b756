package services

import (
	"context"

	"github.com/Belphemur/MovieBoxLookup/internal/models"
)

// MovieLookup defines the interface for resolving a movie title to its download metadata
type MovieLookup interface {
	// Lookup searches the site for req.Title, opens the first result and returns the
	// download document of that movie with only English captions left in data.captions.
	Lookup(ctx context.Context, req models.LookupRequest) (*models.DownloadMetadata, error)
}
