package api

import (
	"github.com/francoispqt/gojay"
)

type messageResponse struct {
	Message string
	Port    int
}

func (m *messageResponse) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("message", m.Message)
	enc.IntKeyOmitEmpty("port", m.Port)
}

func (m *messageResponse) IsNil() bool {
	return m == nil
}

type errorResponse struct {
	Error string
}

func (e *errorResponse) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("error", e.Error)
}

func (e *errorResponse) IsNil() bool {
	return e == nil
}

type serverNames []string

func (s serverNames) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range s {
		enc.String(v)
	}
}

func (s serverNames) IsNil() bool {
	return s == nil
}

// loadTestRequest is the body of a load test call
type loadTestRequest struct {
	Port             int
	NumberOfRequests int
}

func (r *loadTestRequest) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "port":
		return dec.Int(&r.Port)
	case "numberOfRequests":
		return dec.Int(&r.NumberOfRequests)
	}
	return nil
}

func (r *loadTestRequest) NKeys() int {
	return 2
}

func (r *loadTestRequest) MarshalJSONObject(enc *gojay.Encoder) {
	enc.IntKey("port", r.Port)
	enc.IntKey("numberOfRequests", r.NumberOfRequests)
}

func (r *loadTestRequest) IsNil() bool {
	return r == nil
}
