package elasticsearch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
)

// ndjson marks a pre-encoded newline-delimited body.
type ndjson []byte

// Info returns the cluster banner.
func (c *Client) Info(ctx context.Context) (*Response, error) {
	return c.Perform(ctx, Request{Method: http.MethodGet, Path: "/"})
}

// Ping reports whether a node answers with a success status.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	resp, err := c.Perform(ctx, Request{Method: http.MethodHead, Path: "/"})
	if resp != nil {
		return !resp.IsError(), nil
	}
	return false, err
}

// Search runs query against index. An empty index searches all indices.
func (c *Client) Search(ctx context.Context, index string, query any) (*Response, error) {
	return c.Perform(ctx, Request{Method: http.MethodPost, Path: indexPath(index, "_search"), Body: query})
}

// Count returns the number of documents matching query.
func (c *Client) Count(ctx context.Context, index string, query any) (int64, error) {
	resp, err := c.Perform(ctx, Request{Method: http.MethodPost, Path: indexPath(index, "_count"), Body: query})
	if err != nil {
		return 0, err
	}
	var out struct {
		Count int64 `json:"count"`
	}
	if err := resp.Decode(&out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Index stores doc. An empty id lets the server assign one.
func (c *Client) Index(ctx context.Context, index, id string, doc any) (*Response, error) {
	if id == "" {
		return c.Perform(ctx, Request{Method: http.MethodPost, Path: indexPath(index, "_doc"), Body: doc})
	}
	return c.Perform(ctx, Request{Method: http.MethodPut, Path: docPath(index, id), Body: doc})
}

// Get fetches a document by id.
func (c *Client) Get(ctx context.Context, index, id string) (*Response, error) {
	return c.Perform(ctx, Request{Method: http.MethodGet, Path: docPath(index, id)})
}

// Delete removes a document by id.
func (c *Client) Delete(ctx context.Context, index, id string) (*Response, error) {
	return c.Perform(ctx, Request{Method: http.MethodDelete, Path: docPath(index, id)})
}

// Bulk actions.
const (
	BulkIndex  = "index"
	BulkCreate = "create"
	BulkUpdate = "update"
	BulkDelete = "delete"
)

// BulkOp is one line pair of a bulk request. Delete ops carry no document.
type BulkOp struct {
	Action string
	Index  string
	ID     string
	Doc    any
}

type bulkMeta struct {
	Index string `json:"_index,omitempty"`
	ID    string `json:"_id,omitempty"`
}

// Bulk sends ops as one newline-delimited request.
func (c *Client) Bulk(ctx context.Context, ops []BulkOp) (*Response, error) {
	body, err := EncodeBulk(ops)
	if err != nil {
		return nil, err
	}
	return c.Perform(ctx, Request{Method: http.MethodPost, Path: "/_bulk", Body: ndjson(body)})
}

// EncodeBulk renders ops in the bulk wire format.
func EncodeBulk(ops []BulkOp) ([]byte, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("elasticsearch: empty bulk request")
	}

	var buf bytes.Buffer
	for i, op := range ops {
		switch op.Action {
		case BulkIndex, BulkCreate, BulkUpdate, BulkDelete:
		default:
			return nil, fmt.Errorf("elasticsearch: bulk op %d: unknown action %q", i, op.Action)
		}

		meta, err := sonic.Marshal(map[string]bulkMeta{op.Action: {Index: op.Index, ID: op.ID}})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: bulk op %d: %w", i, err)
		}
		buf.Write(meta)
		buf.WriteByte('\n')

		if op.Action == BulkDelete {
			continue
		}
		doc, err := sonic.Marshal(op.Doc)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: bulk op %d: %w", i, err)
		}
		buf.Write(doc)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func indexPath(index, endpoint string) string {
	if index == "" {
		return "/" + endpoint
	}
	return "/" + url.PathEscape(index) + "/" + endpoint
}

func docPath(index, id string) string {
	return "/" + url.PathEscape(index) + "/_doc/" + url.PathEscape(id)
}
