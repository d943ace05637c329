package dsld

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/macrolens/tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v9/search-filter", r.URL.Path)
		assert.Equal(t, "Vitamin D3 NOW Foods", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits": [
			{"_id": "12345", "_source": {"fullName": "Vitamin D-3 2,000 IU", "brandName": "NOW", "upcSku": "7 33739 00373 5"}},
			{"_id": "67890", "_source": {"fullName": "D3 Gummies", "brandName": "Other"}}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)

	hits, err := client.Search(context.Background(), "Vitamin D3 NOW Foods")

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "12345", hits[0].ID)
	assert.Equal(t, "NOW", hits[0].Source.BrandName)
}

func TestSearch_NoHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits": []}`))
	}))
	defer server.Close()

	hits, err := NewClient(server.URL, time.Second, nil).Search(context.Background(), "nothing")

	assert.Nil(t, hits)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v9/label/12345":
			w.Write([]byte(`{
				"id": 12345,
				"fullName": "Vitamin D-3 2,000 IU",
				"brandName": "NOW",
				"servingSizes": [{"minQuantity": 1, "maxQuantity": 1, "unit": "Softgel(s)"}],
				"ingredientRows": [{"name": "Vitamin D3", "quantity": [{"quantity": 50, "unit": "mcg"}]}]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)

	label, err := client.GetLabel(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, domain.FlexString("12345"), label.ID)
	assert.Equal(t, "Vitamin D-3 2,000 IU", label.FullName)
	require.Len(t, label.IngredientRows, 1)

	label, err = client.GetLabel(context.Background(), "missing")
	assert.Nil(t, label)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestClient_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"hits": [`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, 50*time.Millisecond, nil)

			hits, err := client.Search(context.Background(), "q")
			assert.Nil(t, hits)
			assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

			label, err := client.GetLabel(context.Background(), "1")
			assert.Nil(t, label)
			assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
		})
	}
}
