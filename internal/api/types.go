package api

import (
	"github.com/samcharles93/ovfkit/internal/stats"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type HeaderResponse struct {
	Object string      `json:"object"`
	Path   string      `json:"path"`
	Header *ovf.Header `json:"header"`
}

type DecodeRequest struct {
	Path   string `json:"path"`
	Scalar bool   `json:"scalar,omitempty"`
}

// DecodeRecord is what the server keeps about a completed decode. The
// decoded values themselves are not retained.
type DecodeRecord struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	CreatedAt int64          `json:"created_at"`
	Path      string         `json:"path"`
	Mode      string         `json:"mode"`
	Shape     []int          `json:"shape"`
	Width     int            `json:"width"`
	Checksum  string         `json:"checksum"`
	Header    *ovf.Header    `json:"header"`
	Summary   *stats.Summary `json:"summary,omitempty"`
}

type DecodeList struct {
	Object string         `json:"object"`
	Data   []DecodeRecord `json:"data"`
}

type DeleteDecodeResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type GroupResponse struct {
	Object string               `json:"object"`
	Dir    string               `json:"dir"`
	Mode   string               `json:"mode"`
	Shape  []int                `json:"shape"`
	Frames []stats.FrameSummary `json:"frames"`
}
