package azure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"vision-assistant/internal/domain"
)

const (
	DefaultMapsBaseURL    = "https://atlas.microsoft.com"
	DefaultMapsAPIVersion = "1.0"
	DefaultSearchRadius   = 5000
)

type MapsClient struct {
	client
	apiVersion   string
	radiusMeters int
	logger       *slog.Logger
}

func NewMapsClient(baseURL, key, apiVersion string, radiusMeters int, logger *slog.Logger) *MapsClient {
	if baseURL == "" {
		baseURL = DefaultMapsBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultMapsAPIVersion
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultSearchRadius
	}
	return &MapsClient{
		client:       newClient("maps", baseURL, key),
		apiVersion:   apiVersion,
		radiusMeters: radiusMeters,
		logger:       logger,
	}
}

func (c *MapsClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.checkConfigured(); err != nil {
		return err
	}
	query.Set("api-version", c.apiVersion)
	query.Set("subscription-key", c.key)
	target := c.endpoint + path + "?" + query.Encode()

	return c.getJSON(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}, out)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type reverseResponse struct {
	Addresses []struct {
		Address struct {
			FreeformAddress string `json:"freeformAddress"`
		} `json:"address"`
	} `json:"addresses"`
}

// ReverseGeocode returns the postal address closest to at.
func (c *MapsClient) ReverseGeocode(ctx context.Context, at domain.Coordinate) (string, error) {
	var body reverseResponse
	err := c.get(ctx, "/search/address/reverse/json", url.Values{
		"query": {formatCoord(at.Lat) + "," + formatCoord(at.Lon)},
	}, &body)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding: %w", err)
	}
	if len(body.Addresses) == 0 || body.Addresses[0].Address.FreeformAddress == "" {
		return "", fmt.Errorf("reverse geocoding: %w", domain.ErrNotFound)
	}
	return body.Addresses[0].Address.FreeformAddress, nil
}

type poiResponse struct {
	Results []struct {
		POI struct {
			Name string `json:"name"`
		} `json:"poi"`
		Position domain.Coordinate `json:"position"`
	} `json:"results"`
}

// NearestPOI returns the first point of interest of category within the
// search radius of at.
func (c *MapsClient) NearestPOI(ctx context.Context, category string, at domain.Coordinate) (domain.POI, error) {
	var body poiResponse
	err := c.get(ctx, "/search/poi/category/json", url.Values{
		"query":  {category},
		"lat":    {formatCoord(at.Lat)},
		"lon":    {formatCoord(at.Lon)},
		"radius": {strconv.Itoa(c.radiusMeters)},
	}, &body)
	if err != nil {
		return domain.POI{}, fmt.Errorf("searching %s: %w", category, err)
	}
	if len(body.Results) == 0 {
		return domain.POI{}, fmt.Errorf("searching %s: %w", category, domain.ErrNotFound)
	}

	r := body.Results[0]
	name := r.POI.Name
	if name == "" {
		name = "Unnamed " + category
	}
	c.logger.Debug("poi found", "category", category, "name", name)
	return domain.POI{Name: name, Position: r.Position}, nil
}
