// Package directions fetches walking turn-by-turn instructions from the
// Google Directions API.
package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Bera0422/WalkWays/internal/shared/geo"
	"github.com/Bera0422/WalkWays/internal/walk"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

// Client implements walk.DirectionsProvider. Requests are chunked so no
// single call exceeds the API's per-request waypoint cap.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	apiKey       string
	maxWaypoints int
}

func NewClient(apiKey string, maxWaypoints int) *Client {
	if maxWaypoints <= 0 {
		maxWaypoints = walk.DefaultBatchSize
	}
	return &Client{
		BaseURL:      defaultBaseURL,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		maxWaypoints: maxWaypoints,
	}
}

// Instructions returns the route's turn-by-turn steps anchored at their
// start locations, in route order.
func (c *Client) Instructions(ctx context.Context, origin, dest geo.Point, via []geo.Point) ([]walk.Instruction, error) {
	anchors := make([]geo.Point, 0, len(via)+2)
	anchors = append(anchors, origin)
	anchors = append(anchors, via...)
	anchors = append(anchors, dest)

	var out []walk.Instruction
	start := 0
	for start < len(anchors)-1 {
		end := start + c.maxWaypoints + 1
		if end > len(anchors)-1 {
			end = len(anchors) - 1
		}
		leg, err := c.leg(ctx, anchors[start], anchors[end], anchors[start+1:end])
		if err != nil {
			return nil, err
		}
		out = append(out, leg...)
		start = end
	}
	return out, nil
}

type apiResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Steps []struct {
				HTMLInstructions string `json:"html_instructions"`
				StartLocation    struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"start_location"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func (c *Client) leg(ctx context.Context, origin, dest geo.Point, via []geo.Point) ([]walk.Instruction, error) {
	q := url.Values{}
	q.Set("origin", formatPoint(origin))
	q.Set("destination", formatPoint(dest))
	q.Set("mode", "walking")
	q.Set("key", c.apiKey)
	if len(via) > 0 {
		parts := make([]string, len(via))
		for i, p := range via {
			parts[i] = formatPoint(p)
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions: unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("directions: api status %s", body.Status)
	}

	var out []walk.Instruction
	for _, route := range body.Routes {
		for _, leg := range route.Legs {
			for _, step := range leg.Steps {
				out = append(out, walk.Instruction{
					Text: stripHTML(step.HTMLInstructions),
					Anchor: geo.Point{
						Lat: step.StartLocation.Lat,
						Lng: step.StartLocation.Lng,
					},
				})
			}
		}
		break // only the primary route
	}
	return out, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	plain := html.UnescapeString(tagPattern.ReplaceAllString(s, " "))
	return strings.Join(strings.Fields(plain), " ")
}

func formatPoint(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
