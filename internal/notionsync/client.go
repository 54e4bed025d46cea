package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
)

const (
	// queryPageSize is the largest page the Notion query endpoint returns.
	queryPageSize = 100
	callTimeout   = 30 * time.Second
)

// Client talks to the visit records database through the Notion API.
type Client struct {
	api *notionapi.Client
}

// NewClient returns a Client authenticated with an integration token.
func NewClient(token string) *Client {
	return &Client{api: notionapi.NewClient(notionapi.Token(token))}
}

func (c *Client) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePage: database %s: %w", databaseID, err)
	}
	return page, nil
}

func (c *Client) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	page, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: properties})
	if err != nil {
		return nil, fmt.Errorf("UpdatePage: page %s: %w", pageID, err)
	}
	return page, nil
}

// QueryDatabase fetches one page of results. A nil request or a zero page
// size asks for the largest page.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if req == nil {
		req = &notionapi.DatabaseQueryRequest{}
	}
	if req.PageSize == 0 {
		req.PageSize = queryPageSize
	}
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: database %s: %w", databaseID, err)
	}
	return resp, nil
}

// ArchivePage moves a page to the trash; Notion has no hard delete.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if _, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Archived: true}); err != nil {
		return fmt.Errorf("ArchivePage: page %s: %w", pageID, err)
	}
	return nil
}

var _ NotionService = (*Client)(nil)
