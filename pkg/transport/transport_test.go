package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/matchpredict/pkg/protocol"
)

func TestStdioTransportRoundTrip(t *testing.T) {
	in := strings.NewReader("\n" +
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n" +
		`not json` + "\n")
	var out bytes.Buffer
	tr := NewStreamTransport(in, &out)

	req, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "tools/list", req.Method)

	_, err = tr.ReadRequest()
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))

	_, err = tr.ReadRequest()
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, IsRecoverable(err))

	resp, err := protocol.NewJsonRpcResponse(map[string]string{"ok": "yes"}, 1)
	require.NoError(t, err)
	require.NoError(t, tr.WriteResponse(resp))
	assert.Equal(t, `{"jsonrpc":"2.0","result":{"ok":"yes"},"id":1}`+"\n", out.String())
}

func TestGetDecodesBodies(t *testing.T) {
	const body = "Div,Date,HomeTeam\nE0,13/08/2021,Arsenal\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			io.WriteString(bw, body)
			bw.Close()
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			gw := gzip.NewWriter(w)
			io.WriteString(gw, body)
			gw.Close()
		case "/plain":
			io.WriteString(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/br", "/gzip", "/plain"} {
		got, err := Get(context.Background(), srv.URL+path, "text/csv")
		require.NoError(t, err, path)
		assert.Equal(t, body, string(got), path)
	}

	_, err := Get(context.Background(), srv.URL+"/missing", "")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.Code)
}
