package front

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cybersms/numstore/internal/activation"
	"github.com/cybersms/numstore/internal/config"
	"github.com/cybersms/numstore/internal/models"
	"github.com/cybersms/numstore/internal/provider"
	"github.com/cybersms/numstore/internal/session"
	"github.com/cybersms/numstore/internal/store"
)

// fakeProvider is an in-process stand-in for the provisioning API.
type fakeProvider struct {
	balance         int64
	priceCents      int64
	available       int64
	nextRemoteID    int64
	activationCalls int
}

func (f *fakeProvider) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON := func(payload any) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(payload)
		}
		customer := provider.Customer{
			ID: 7, PIN: 4242, Name: "Dana", Email: "dana@example.com",
			Balance: f.balance, Active: true,
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/customers":
			writeJSON(customer)
		case r.URL.Path == "/customers/by-email", r.URL.Path == "/customers/by-pin":
			writeJSON(customer)
		case r.URL.Path == "/services":
			writeJSON([]provider.Service{{ID: 2, Code: "tg", Name: "Telegram", Category: "messaging"}})
		case r.URL.Path == "/countries":
			writeJSON([]provider.Country{{ID: 1, Name: "Brazil", Code: "BR"}})
		case r.URL.Path == "/prices":
			writeJSON([]provider.Price{{Price: f.priceCents, Available: f.available}})
		case r.Method == http.MethodPost && r.URL.Path == "/activations":
			f.activationCalls++
			f.nextRemoteID++
			writeJSON(provider.ActivationCreated{
				ActivationID: f.nextRemoteID,
				PhoneNumber:  "+5511999990000",
				Status:       provider.StatusWaiting,
			})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/cancel"):
			writeJSON(map[string]bool{"success": true})
		case strings.HasPrefix(r.URL.Path, "/activations/"):
			writeJSON(provider.ActivationStatus{Status: provider.StatusWaiting})
		default:
			w.WriteHeader(http.StatusNotFound)
			writeJSON(map[string]string{"error": "not found"})
		}
	}
}

func setupFrontTest(t *testing.T) (*gin.Engine, *fakeProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:front_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Activation{}, &models.Favorite{}, &models.Credential{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	fake := &fakeProvider{balance: 10000, priceCents: 3000, available: 5}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client := provider.NewClient(server.URL, "test-key", 0, provider.NewMemoryCache())
	sessions := session.NewManager(client)
	activations := store.NewActivationStore(db)
	coordinator := activation.NewCoordinator(client, activations, sessions)

	engine := gin.New()
	RegisterFrontRoutes(engine, Deps{
		JWT:         config.JWTConfig{Secret: "front-test-secret"},
		Provider:    client,
		Sessions:    sessions,
		Coordinator: coordinator,
		Activations: activations,
		Favorites:   store.NewFavoriteStore(db),
		Credentials: store.NewCredentialStore(db),
	})
	return engine, fake
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	var decoded map[string]any
	if recorder.Body.Len() > 0 {
		if errDecode := json.Unmarshal(recorder.Body.Bytes(), &decoded); errDecode != nil {
			t.Fatalf("decode response %q: %v", recorder.Body.String(), errDecode)
		}
	}
	return recorder, decoded
}

func registerCustomer(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	recorder, body := doJSON(t, engine, http.MethodPost, "/v0/front/register", "", map[string]string{
		"email": "dana@example.com", "name": "Dana", "password": "hunter2!",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", recorder.Code, recorder.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("register response missing token")
	}
	return token
}

func TestRegisterLoginAndLogout(t *testing.T) {
	engine, _ := setupFrontTest(t)
	token := registerCustomer(t, engine)

	// Registering the same email twice is rejected locally.
	recorder, _ := doJSON(t, engine, http.MethodPost, "/v0/front/register", "", map[string]string{
		"email": "dana@example.com", "name": "Dana", "password": "hunter2!",
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", recorder.Code)
	}

	recorder, body := doJSON(t, engine, http.MethodPost, "/v0/front/login", "", map[string]string{
		"email": "dana@example.com", "password": "hunter2!",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", recorder.Code, recorder.Body.String())
	}
	if body["balance"].(float64) != 100.00 {
		t.Fatalf("login balance = %v, want 100", body["balance"])
	}

	recorder, _ = doJSON(t, engine, http.MethodPost, "/v0/front/login", "", map[string]string{
		"email": "dana@example.com", "password": "wrong",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", recorder.Code)
	}

	recorder, _ = doJSON(t, engine, http.MethodPost, "/v0/front/logout", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("logout status = %d", recorder.Code)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	engine, _ := setupFrontTest(t)

	recorder, _ := doJSON(t, engine, http.MethodGet, "/v0/front/activations", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	recorder, _ = doJSON(t, engine, http.MethodGet, "/v0/front/activations", "not-a-jwt", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d for garbage token, want 401", recorder.Code)
	}
}

func TestCatalogEndpointsArePublic(t *testing.T) {
	engine, _ := setupFrontTest(t)

	recorder, body := doJSON(t, engine, http.MethodGet, "/v0/front/catalog/services", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("services status = %d", recorder.Code)
	}
	if services := body["services"].([]any); len(services) != 1 {
		t.Fatalf("services = %v", body["services"])
	}

	recorder, body = doJSON(t, engine, http.MethodGet, "/v0/front/catalog/prices?countryId=1&serviceId=2", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("prices status = %d", recorder.Code)
	}
	if body["price"].(float64) != 30.00 {
		t.Fatalf("price = %v, want 30", body["price"])
	}
}

func TestPurchaseFlow(t *testing.T) {
	engine, _ := setupFrontTest(t)
	token := registerCustomer(t, engine)

	recorder, body := doJSON(t, engine, http.MethodPost, "/v0/front/activations", token, map[string]any{
		"countryId": 1, "serviceId": 2, "price": 30.00,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("purchase status = %d body=%s", recorder.Code, recorder.Body.String())
	}
	view := body["activation"].(map[string]any)
	if view["status"] != models.StatusWaiting {
		t.Fatalf("status = %v, want waiting", view["status"])
	}
	if view["minutesLeft"].(float64) != float64(models.DefaultReservationMinutes) {
		t.Fatalf("minutesLeft = %v, want %d", view["minutesLeft"], models.DefaultReservationMinutes)
	}

	recorder, body = doJSON(t, engine, http.MethodGet, "/v0/front/activations", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d", recorder.Code)
	}
	if active := body["activations"].([]any); len(active) != 1 {
		t.Fatalf("active count = %d, want 1", len(active))
	}

	activationID := view["id"].(string)
	recorder, body = doJSON(t, engine, http.MethodPost, "/v0/front/activations/"+activationID+"/cancel", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("cancel status = %d body=%s", recorder.Code, recorder.Body.String())
	}
	if cancelled := body["activation"].(map[string]any); cancelled["status"] != models.StatusCancelled {
		t.Fatalf("status after cancel = %v, want cancelled", cancelled["status"])
	}

	recorder, body = doJSON(t, engine, http.MethodGet, "/v0/front/activations/history", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("history status = %d", recorder.Code)
	}
	if history := body["activations"].([]any); len(history) != 1 {
		t.Fatalf("history count = %d, want 1", len(history))
	}
}

func TestPurchaseRejectedWhenBalanceTooLow(t *testing.T) {
	engine, fake := setupFrontTest(t)
	fake.balance = 500 // 5.00 against a 30.00 quote
	token := registerCustomer(t, engine)

	recorder, _ := doJSON(t, engine, http.MethodPost, "/v0/front/activations", token, map[string]any{
		"countryId": 1, "serviceId": 2, "price": 30.00,
	})
	if recorder.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", recorder.Code)
	}
	if fake.activationCalls != 0 {
		t.Fatalf("provider asked for %d activation(s) despite the rejection, want 0", fake.activationCalls)
	}
}

func TestFavoritesLifecycle(t *testing.T) {
	engine, _ := setupFrontTest(t)
	token := registerCustomer(t, engine)

	recorder, _ := doJSON(t, engine, http.MethodPost, "/v0/front/favorites", token, map[string]int64{"serviceId": 2})
	if recorder.Code != http.StatusOK {
		t.Fatalf("add status = %d", recorder.Code)
	}

	recorder, body := doJSON(t, engine, http.MethodGet, "/v0/front/favorites", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d", recorder.Code)
	}
	if ids := body["service_ids"].([]any); len(ids) != 1 || ids[0].(float64) != 2 {
		t.Fatalf("service_ids = %v, want [2]", body["service_ids"])
	}

	recorder, _ = doJSON(t, engine, http.MethodDelete, "/v0/front/favorites/2", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("remove status = %d", recorder.Code)
	}
	_, body = doJSON(t, engine, http.MethodGet, "/v0/front/favorites", token, nil)
	if ids := body["service_ids"].([]any); len(ids) != 0 {
		t.Fatalf("service_ids after remove = %v, want empty", body["service_ids"])
	}
}

func TestTopUpCreditsBonus(t *testing.T) {
	engine, _ := setupFrontTest(t)
	token := registerCustomer(t, engine)

	recorder, body := doJSON(t, engine, http.MethodPost, "/v0/front/balance/topup", token, map[string]any{
		"method": "crypto", "amount": 50,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("topup status = %d body=%s", recorder.Code, recorder.Body.String())
	}
	if body["credited"].(float64) != 60 {
		t.Fatalf("credited = %v, want 60", body["credited"])
	}
	if body["balance"].(float64) != 160 {
		t.Fatalf("balance = %v, want 160", body["balance"])
	}
}

func TestProfileUpdateAndPasswordChange(t *testing.T) {
	engine, _ := setupFrontTest(t)
	token := registerCustomer(t, engine)

	recorder, _ := doJSON(t, engine, http.MethodPut, "/v0/front/profile/name", token, map[string]string{"name": "Dana R."})
	if recorder.Code != http.StatusOK {
		t.Fatalf("update name status = %d", recorder.Code)
	}
	recorder, body := doJSON(t, engine, http.MethodGet, "/v0/front/profile", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("profile status = %d", recorder.Code)
	}
	if body["name"] != "Dana R." {
		t.Fatalf("name = %v, want Dana R.", body["name"])
	}

	recorder, _ = doJSON(t, engine, http.MethodPut, "/v0/front/profile/password", token, map[string]string{
		"old_password": "wrong", "new_password": "newpass1!",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("password change with wrong current = %d, want 401", recorder.Code)
	}
	recorder, _ = doJSON(t, engine, http.MethodPut, "/v0/front/profile/password", token, map[string]string{
		"old_password": "hunter2!", "new_password": "newpass1!",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("password change status = %d", recorder.Code)
	}

	recorder, _ = doJSON(t, engine, http.MethodPost, "/v0/front/login", "", map[string]string{
		"email": "dana@example.com", "password": "newpass1!",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("login with new password status = %d", recorder.Code)
	}
}

func TestFAQIsPublic(t *testing.T) {
	engine, _ := setupFrontTest(t)
	recorder, body := doJSON(t, engine, http.MethodGet, "/v0/front/faq", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("faq status = %d", recorder.Code)
	}
	if entries := body["faq"].([]any); len(entries) == 0 {
		t.Fatal("faq is empty")
	}
}
