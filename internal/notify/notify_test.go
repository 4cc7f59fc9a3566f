package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"crypverify-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification() StatusNotification {
	return StatusNotification{
		UserName:    "Ada Lovelace",
		UserEmail:   "ada@example.com",
		Status:      models.StatusApproved,
		ReferenceId: "K3J9ZQ1XA",
	}
}

func TestEmailJSNotifier_SendsTemplateParams(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1.0/email/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	n := NewEmailJSNotifier(models.NotificationConfig{
		ApiUrl:     srv.URL + "/",
		ServiceId:  "service_x",
		TemplateId: "template_y",
		PublicKey:  "pub",
		PrivateKey: "priv",
	}, srv.Client())

	require.NoError(t, n.Notify(context.Background(), testNotification()))
	assert.Equal(t, "service_x", got.ServiceId)
	assert.Equal(t, "template_y", got.TemplateId)
	assert.Equal(t, "pub", got.UserId)
	assert.Equal(t, "priv", got.AccessToken)
	assert.Equal(t, map[string]string{
		"user_name":  "Ada Lovelace",
		"user_email": "ada@example.com",
		"status":     "APPROVED",
		"ref_id":     "K3J9ZQ1XA",
	}, got.TemplateParams)
}

func TestEmailJSNotifier_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer srv.Close()

	n := NewEmailJSNotifier(models.NotificationConfig{ApiUrl: srv.URL, ServiceId: "s", TemplateId: "t"}, srv.Client())
	err := n.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "template ID is invalid")
}

func TestNew_SelectsBackend(t *testing.T) {
	assert.IsType(t, LogNotifier{}, New(models.NotificationConfig{}, nil))
	assert.IsType(t, &EmailJSNotifier{}, New(models.NotificationConfig{ServiceId: "s", TemplateId: "t"}, nil))
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), testNotification()))
}
