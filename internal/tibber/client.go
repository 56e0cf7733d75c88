package tibber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"tibprice/internal/price"
)

// DefaultAPIURL is the production Tibber GraphQL endpoint.
const DefaultAPIURL = "https://api.tibber.com/v1-beta/gql"

// Client talks to the Tibber GraphQL API for one account.
type Client struct {
	http   *resty.Client
	homeID string
}

// Home identifies a Tibber home as returned by the homes listing.
type Home struct {
	ID          string `json:"id"`
	AppNickname string `json:"appNickname"`
}

// PriceInfo carries the raw today and tomorrow price lists for one home.
type PriceInfo struct {
	Today    []price.PricePoint `json:"today"`
	Tomorrow []price.PricePoint `json:"tomorrow"`
}

type gqlHome struct {
	ID                  string `json:"id"`
	AppNickname         string `json:"appNickname"`
	CurrentSubscription *struct {
		PriceInfo PriceInfo `json:"priceInfo"`
	} `json:"currentSubscription"`
}

type gqlResponse struct {
	Data *struct {
		Viewer struct {
			Home  *gqlHome  `json:"home"`
			Homes []gqlHome `json:"homes"`
		} `json:"viewer"`
	} `json:"data"`
}

// New creates a Client for the given endpoint and access token. An empty
// homeID makes price queries address all homes and use the first one that
// carries a subscription.
func New(apiURL, accessToken, homeID string) *Client {
	http := resty.New().
		SetBaseURL(apiURL).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Bearer "+accessToken).
		SetTimeout(30 * time.Second)
	return &Client{http: http, homeID: homeID}
}

func (c *Client) execute(ctx context.Context, query string) (*gqlResponse, error) {
	var out gqlResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"query": query}).
		SetResult(&out).
		Post("")
	if err != nil {
		return nil, newTransportError(err)
	}
	if !resp.IsSuccess() {
		return nil, newStatusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if out.Data == nil {
		return nil, newResponseError("response carries no data")
	}
	return &out, nil
}

// ListHomes returns every home on the account with its id and nickname.
func (c *Client) ListHomes(ctx context.Context) ([]Home, error) {
	resp, err := c.execute(ctx, `{viewer{homes{id appNickname}}}`)
	if err != nil {
		return nil, err
	}
	homes := make([]Home, 0, len(resp.Data.Viewer.Homes))
	for _, h := range resp.Data.Viewer.Homes {
		homes = append(homes, Home{ID: h.ID, AppNickname: h.AppNickname})
	}
	return homes, nil
}

// FetchPriceInfo retrieves the today and tomorrow price lists. With a home
// id configured the query addresses that home directly; otherwise the first
// home with a subscription is used.
func (c *Client) FetchPriceInfo(ctx context.Context) (PriceInfo, error) {
	selector := "homes"
	if c.homeID != "" {
		selector = fmt.Sprintf("home(id: %q)", c.homeID)
	}
	query := fmt.Sprintf(
		`{ viewer { %s { currentSubscription { priceInfo { today { total startsAt } tomorrow { total startsAt } } } } } }`,
		selector,
	)

	resp, err := c.execute(ctx, query)
	if err != nil {
		return PriceInfo{}, err
	}

	viewer := resp.Data.Viewer
	if viewer.Home != nil {
		if viewer.Home.CurrentSubscription == nil {
			return PriceInfo{}, newResponseError("home has no active subscription")
		}
		return viewer.Home.CurrentSubscription.PriceInfo, nil
	}
	for _, h := range viewer.Homes {
		if h.CurrentSubscription != nil {
			return h.CurrentSubscription.PriceInfo, nil
		}
	}
	return PriceInfo{}, newResponseError("no home with an active subscription")
}

// Fetch retrieves today's and tomorrow's prices as one merged series. It is
// the fetch entry point the retry layer and refresh worker build on.
func (c *Client) Fetch(ctx context.Context) (price.Series, error) {
	info, err := c.FetchPriceInfo(ctx)
	if err != nil {
		return price.Series{}, err
	}
	return price.Merge(info.Today, info.Tomorrow), nil
}
