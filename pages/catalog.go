package pages

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// CatalogItem is a product as returned by the catalog API.
type CatalogItem struct {
	ID    int     `json:"id"`
	Cat   string  `json:"cat"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Desc  string  `json:"desc"`
	Img   string  `json:"img"`
}

type categoryResponse struct {
	Items *[]CatalogItem `json:"Items"`
}

// FetchCategory posts to /bycat and returns the items of the category.
func FetchCategory(request playwright.APIRequestContext, category string) ([]CatalogItem, error) {
	response, err := request.Post("/bycat", playwright.APIRequestContextPostOptions{
		Headers: map[string]string{"content-type": "application/json"},
		Data:    map[string]string{"cat": category},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting category %s: %w", category, err)
	}
	defer response.Dispose()

	if !response.Ok() {
		return nil, fmt.Errorf("requesting category %s: unexpected status %d", category, response.Status())
	}
	body, err := response.Body()
	if err != nil {
		return nil, fmt.Errorf("reading category response: %w", err)
	}
	return decodeCategory(body)
}

func decodeCategory(body []byte) ([]CatalogItem, error) {
	var resp categoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding category response: %w", err)
	}
	if resp.Items == nil {
		return nil, errors.New("category response has no Items")
	}
	return *resp.Items, nil
}
