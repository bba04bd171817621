package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCompanyFromHost(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{"acme.kodisha.co.ke", "acme", false},
		{"acme.kodisha.co.ke:8080", "acme", false},
		{"bidii.example.com", "bidii", false},
		{"kodisha.com", "", true},
		{"localhost", "", true},
		{"localhost:8080", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			slug, err := ExtractCompanyFromHost(tt.host)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, slug)
		})
	}
}

func TestRequireCompany(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("passes with a company in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Set("company_id", uuid.New())

		RequireCompany()(c)
		assert.False(t, c.IsAborted())
	})

	t.Run("aborts without company context", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)

		RequireCompany()(c)
		assert.True(t, c.IsAborted())
		assert.Equal(t, 400, w.Code)
	})

	t.Run("aborts with nil company", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Set("company_id", uuid.Nil)

		RequireCompany()(c)
		assert.True(t, c.IsAborted())
		assert.Equal(t, 400, w.Code)
	})
}

func TestGetCompanyID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.Equal(t, uuid.Nil, GetCompanyID(c))

	id := uuid.New()
	c.Set("company_id", id)
	assert.Equal(t, id, GetCompanyID(c))
}
