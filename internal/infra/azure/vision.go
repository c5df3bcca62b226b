package azure

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/infra"
)

const DefaultVisionAPIVersion = "v3.2"

type VisionClient struct {
	client
	apiVersion string
	logger     *slog.Logger
}

func NewVisionClient(endpoint, key, apiVersion string, logger *slog.Logger) *VisionClient {
	if apiVersion == "" {
		apiVersion = DefaultVisionAPIVersion
	}
	return &VisionClient{
		client:     newClient("vision", endpoint, key),
		apiVersion: apiVersion,
		logger:     logger,
	}
}

func (c *VisionClient) Endpoint() string {
	return c.endpoint
}

func (c *VisionClient) endpointURL(path string, query url.Values) string {
	u := c.endpoint + "/vision/" + c.apiVersion + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *VisionClient) imageRequest(ctx context.Context, target string, image []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set(subscriptionKeyHeader, c.key)
	req.Header.Set("Content-Type", "application/octet-stream")
	return req, nil
}

type readResponse struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []struct {
			Language string `json:"language"`
			Lines    []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
	} `json:"analyzeResult"`
}

func (r readResponse) result() domain.ReadResult {
	var out domain.ReadResult
	for _, page := range r.AnalyzeResult.ReadResults {
		p := domain.ReadPage{Language: page.Language}
		for _, l := range page.Lines {
			p.Lines = append(p.Lines, l.Text)
		}
		out.Pages = append(out.Pages, p)
	}
	return out
}

// SubmitRead starts a Read operation. The language is left to the service to
// detect so Kannada and English text are both recognized.
func (c *VisionClient) SubmitRead(ctx context.Context, image []byte) (domain.Submission[domain.ReadResult], error) {
	var sub domain.Submission[domain.ReadResult]
	if err := c.checkConfigured(); err != nil {
		return sub, err
	}

	err := c.withRetry(ctx, func() error {
		req, err := c.imageRequest(ctx, c.endpointURL("/read/analyze", nil), image)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return infra.TransportError(c.service, err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusAccepted:
			sub = domain.Accepted[domain.ReadResult](resp.Header.Get("Operation-Location"))
			return nil
		case http.StatusOK:
			var body readResponse
			if err := c.decode(resp.Body, &body); err != nil {
				return err
			}
			sub = domain.ImmediateResult(body.result())
			return nil
		default:
			return infra.StatusError(c.service, resp)
		}
	})
	if err != nil {
		return sub, fmt.Errorf("submitting read: %w", err)
	}
	c.logger.Debug("read submitted", "location", sub.Location, "immediate", sub.Immediate)
	return sub, nil
}

// PollRead asks once for the state of a Read operation.
func (c *VisionClient) PollRead(ctx context.Context, location string) (domain.PollResult[domain.ReadResult], error) {
	var out domain.PollResult[domain.ReadResult]
	if err := c.checkConfigured(); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(subscriptionKeyHeader, c.key)

	resp, err := c.send(req, http.StatusOK)
	if err != nil {
		return out, fmt.Errorf("polling read: %w", err)
	}
	defer resp.Body.Close()

	var body readResponse
	if err := c.decode(resp.Body, &body); err != nil {
		return out, err
	}

	switch strings.ToLower(body.Status) {
	case "notstarted":
		out.Status = domain.StatusAccepted
	case "running":
		out.Status = domain.StatusRunning
	case "succeeded":
		out.Status = domain.StatusSucceeded
		out.Payload = body.result()
	case "failed":
		out.Status = domain.StatusFailed
	default:
		return out, fmt.Errorf("%s: %w: read status %q", c.service, domain.ErrParse, body.Status)
	}
	return out, nil
}

type analyzeResponse struct {
	Description struct {
		Captions []struct {
			Text       string  `json:"text"`
			Confidence float64 `json:"confidence"`
		} `json:"captions"`
	} `json:"description"`
	Objects []struct {
		Object string `json:"object"`
	} `json:"objects"`
	Color struct {
		DominantColors []string `json:"dominantColors"`
	} `json:"color"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

func (r analyzeResponse) objects() []string {
	out := make([]string, 0, len(r.Objects))
	for _, o := range r.Objects {
		if o.Object != "" {
			out = append(out, o.Object)
		}
	}
	return out
}

func (c *VisionClient) analyze(ctx context.Context, image []byte, query url.Values) (analyzeResponse, error) {
	var body analyzeResponse
	if err := c.checkConfigured(); err != nil {
		return body, err
	}
	err := c.getJSON(ctx, func() (*http.Request, error) {
		return c.imageRequest(ctx, c.endpointURL("/analyze", query), image)
	}, &body)
	return body, err
}

func (c *VisionClient) AnalyzeScene(ctx context.Context, image []byte) (domain.SceneAnalysis, error) {
	body, err := c.analyze(ctx, image, url.Values{
		"visualFeatures": {"Description,Objects"},
		"language":       {"en"},
	})
	if err != nil {
		return domain.SceneAnalysis{}, fmt.Errorf("analyzing scene: %w", err)
	}

	var a domain.SceneAnalysis
	if len(body.Description.Captions) > 0 {
		a.Caption = body.Description.Captions[0].Text
	}
	a.Objects = body.objects()
	return a, nil
}

func (c *VisionClient) AnalyzeObject(ctx context.Context, image []byte) (domain.ObjectAnalysis, error) {
	body, err := c.analyze(ctx, image, url.Values{
		"visualFeatures": {"Objects,Color,Tags"},
	})
	if err != nil {
		return domain.ObjectAnalysis{}, fmt.Errorf("analyzing object: %w", err)
	}

	a := domain.ObjectAnalysis{
		Objects:        body.objects(),
		DominantColors: body.Color.DominantColors,
	}
	for _, t := range body.Tags {
		a.Tags = append(a.Tags, t.Name)
	}
	return a, nil
}
