// internal/infra/pinata/publisher.go
package pinata

import (
	"context"
	"io"

	"tokenforge/internal/application/usecase"
)

// Publisher adapts Client to the coordinator's metadata-publisher port.
type Publisher struct {
	Client *Client
}

var _ usecase.MetadataPublisherPort = (*Publisher)(nil)

func NewPublisher(c *Client) *Publisher {
	return &Publisher{Client: c}
}

func (p *Publisher) PinFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	if p == nil || p.Client == nil {
		return "", ErrNotConfigured
	}
	return p.Client.PinFile(ctx, filename, r)
}

func (p *Publisher) PinJSON(ctx context.Context, doc usecase.MetadataDocument) (string, error) {
	if p == nil || p.Client == nil {
		return "", ErrNotConfigured
	}
	return p.Client.PinJSON(ctx, TokenMetadata{
		Name:        doc.Name,
		Symbol:      doc.Symbol,
		Description: doc.Description,
		Image:       doc.Image,
	})
}
