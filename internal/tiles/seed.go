package tiles

import (
	"context"
	"errors"
	"log/slog"
)

// DemoTiles are the sample entries installed by `folio seed`.
var DemoTiles = []CreateRequest{
	{
		Slug:      "paris",
		Title:     "PARIS",
		Blurb:     "Explore the City of Light through stunning photography and travel guides.",
		CTALabel:  "Visit",
		TargetURL: "https://paris.example.com",
		AccentHex: "#e76f51",
	},
	{
		Slug:      "dubai",
		Title:     "DUBAI",
		Blurb:     "Discover luxury and innovation in the heart of the UAE.",
		CTALabel:  "Explore",
		TargetURL: "https://dubai.example.com",
		AccentHex: "#2a9d8f",
	},
	{
		Slug:      "brazil",
		Title:     "BRAZIL",
		Blurb:     "Experience the vibrant culture and breathtaking landscapes of Brazil.",
		CTALabel:  "Discover",
		TargetURL: "https://brazil.example.com",
		AccentHex: "#f4a261",
	},
	{
		Slug:      "india",
		Title:     "INDIA",
		Blurb:     "Journey through ancient temples and modern marvels across India.",
		CTALabel:  "Explore",
		TargetURL: "https://india.example.com",
		AccentHex: "#e9c46a",
	},
}

// SeedDemo creates the demo tiles whose slugs are still free and returns
// how many were created.
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	created := 0
	for _, req := range DemoTiles {
		if _, err := s.Create(ctx, req); err != nil {
			if errors.Is(err, ErrSlugTaken) {
				s.logger.Info("demo tile exists", slog.String("slug", req.Slug))
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
