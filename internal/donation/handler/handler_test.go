package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"givetrack/internal/donation/service"
	candidacystore "givetrack/internal/donation/store/candidacy"
	donationstore "givetrack/internal/donation/store/donation"
	historystore "givetrack/internal/donation/store/history"
	progressstore "givetrack/internal/donation/store/progress"
	sequencestore "givetrack/internal/donation/store/sequence"
	"givetrack/internal/platform/middleware"
)

// stubValidator treats the bearer token itself as the subject user ID.
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	return &middleware.JWTClaims{UserID: token}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		donationstore.NewInMemory(),
		candidacystore.NewInMemory(),
		progressstore.NewInMemory(),
		historystore.NewInMemory(),
		sequencestore.NewInMemory(),
		service.WithLogger(logger),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequireAuth(stubValidator{}, logger))
	New(svc, logger).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
}

func validCreateBody() map[string]any {
	return map[string]any{
		"title":        "Oak bookshelf",
		"description":  "Solid oak, five shelves, minor scratches.",
		"category":     "furniture",
		"pickup_type":  "at_location",
		"address_line": "12 Elm Street",
		"city":         "Springfield",
		"state":        "IL",
		"postal_code":  "62704",
	}
}

func createDonation(t *testing.T, srv *httptest.Server, donorToken string) string {
	t.Helper()
	resp := doJSON(t, srv, http.MethodPost, "/donations", donorToken, validCreateBody())
	wantStatus(t, resp, http.StatusCreated)
	var body struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &body)
	if body.ID == "" {
		t.Fatal("create returned empty id")
	}
	return body.ID
}

func TestCreateDonation(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()

	resp := doJSON(t, srv, http.MethodPost, "/donations", donor, validCreateBody())
	wantStatus(t, resp, http.StatusCreated)

	var body struct {
		ID     string `json:"id"`
		Number int64  `json:"number"`
		Status string `json:"status"`
		Donor  string `json:"donor_id"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "OPEN" {
		t.Errorf("status = %q, want OPEN", body.Status)
	}
	if body.Number != 1 {
		t.Errorf("number = %d, want 1", body.Number)
	}
	if body.Donor != donor {
		t.Errorf("donor_id = %q, want %q", body.Donor, donor)
	}
}

func TestCreateDonationValidation(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()

	body := validCreateBody()
	body["title"] = "ab"
	delete(body, "address_line")

	resp := doJSON(t, srv, http.MethodPost, "/donations", donor, body)
	wantStatus(t, resp, http.StatusBadRequest)

	var errBody struct {
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, resp, &errBody)
	if _, ok := errBody.Fields["title"]; !ok {
		t.Error("expected field error for title")
	}
	if _, ok := errBody.Fields["address_line"]; !ok {
		t.Error("expected field error for address_line")
	}
}

func TestRequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv, http.MethodPost, "/donations", "", validCreateBody())
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestGetUnknownDonation(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv, http.MethodGet, "/donations/"+uuid.NewString(), uuid.NewString(), nil)
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestListDonations(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()
	for i := 0; i < 3; i++ {
		createDonation(t, srv, donor)
	}

	resp := doJSON(t, srv, http.MethodGet, "/donations?category=furniture&limit=2", donor, nil)
	wantStatus(t, resp, http.StatusOK)

	var body struct {
		Items []json.RawMessage `json:"items"`
		Total int               `json:"total"`
		Page  int               `json:"page"`
		Limit int               `json:"limit"`
	}
	decodeBody(t, resp, &body)
	if body.Total != 3 {
		t.Errorf("total = %d, want 3", body.Total)
	}
	if len(body.Items) != 2 {
		t.Errorf("items = %d, want 2", len(body.Items))
	}
	if body.Page != 1 || body.Limit != 2 {
		t.Errorf("paging = %d/%d, want 1/2", body.Page, body.Limit)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv, http.MethodGet, "/donations?status=BOGUS", uuid.NewString(), nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestUpdateRecordsHistory(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()
	donationID := createDonation(t, srv, donor)

	resp := doJSON(t, srv, http.MethodPatch, "/donations/"+donationID, donor, map[string]any{
		"title": "Oak bookshelf (reserved)",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/donations/"+donationID+"/history", donor, nil)
	wantStatus(t, resp, http.StatusOK)

	var entries []struct {
		Changes map[string]struct {
			Old string `json:"old"`
			New string `json:"new"`
		} `json:"changes"`
	}
	decodeBody(t, resp, &entries)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	change, ok := entries[0].Changes["title"]
	if !ok {
		t.Fatal("expected a title change in history")
	}
	if change.Old != "Oak bookshelf" || change.New != "Oak bookshelf (reserved)" {
		t.Errorf("change = %+v", change)
	}
}

func TestUpdateByStrangerForbidden(t *testing.T) {
	srv := newTestServer(t)
	donationID := createDonation(t, srv, uuid.NewString())

	resp := doJSON(t, srv, http.MethodPatch, "/donations/"+donationID, uuid.NewString(), map[string]any{
		"title": "hijacked",
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}

func TestCandidacyFlow(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()
	applicant := uuid.NewString()
	donationID := createDonation(t, srv, donor)

	resp := doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/apply", applicant, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	// Duplicate application conflicts.
	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/apply", applicant, nil)
	wantStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	// Donor cannot apply to their own donation.
	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/apply", donor, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	// Only the donor sees the candidate list.
	resp = doJSON(t, srv, http.MethodGet, "/donations/"+donationID+"/candidates", applicant, nil)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/donations/"+donationID+"/candidates", donor, nil)
	wantStatus(t, resp, http.StatusOK)
	var list []struct {
		ApplicantID string `json:"applicant_id"`
	}
	decodeBody(t, resp, &list)
	if len(list) != 1 || list[0].ApplicantID != applicant {
		t.Fatalf("candidates = %+v", list)
	}

	resp = doJSON(t, srv, http.MethodDelete, "/donations/"+donationID+"/candidacy", applicant, nil)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodDelete, "/donations/"+donationID+"/candidacy", applicant, nil)
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestFullLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()
	receiver := uuid.NewString()
	donationID := createDonation(t, srv, donor)

	resp := doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/apply", receiver, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/choose-receiver", donor, map[string]any{
		"receiver_id": receiver,
	})
	wantStatus(t, resp, http.StatusOK)
	var d struct {
		Status     string  `json:"status"`
		ReceiverID *string `json:"receiver_id"`
	}
	decodeBody(t, resp, &d)
	if d.Status != "IN_PROGRESS" {
		t.Fatalf("status = %q, want IN_PROGRESS", d.Status)
	}
	if d.ReceiverID == nil || *d.ReceiverID != receiver {
		t.Fatalf("receiver_id = %v, want %s", d.ReceiverID, receiver)
	}

	// Candidacies are purged once a receiver is chosen.
	resp = doJSON(t, srv, http.MethodGet, "/donations/"+donationID+"/candidates", donor, nil)
	wantStatus(t, resp, http.StatusOK)
	var candidates []json.RawMessage
	decodeBody(t, resp, &candidates)
	if len(candidates) != 0 {
		t.Fatalf("candidates after choose = %d, want 0", len(candidates))
	}

	// Both parties confirm pickup, then completion.
	steps := []struct {
		token string
		body  map[string]any
		want  string
	}{
		{donor, map[string]any{"pickup_confirmed_by_donor": true}, "IN_PROGRESS"},
		{receiver, map[string]any{"pickup_confirmed_by_receiver": true}, "PICKED_UP"},
		{donor, map[string]any{"completion_confirmed_by_donor": true}, "PICKED_UP"},
		{receiver, map[string]any{"completion_confirmed_by_receiver": true}, "COMPLETED"},
	}
	for i, step := range steps {
		resp = doJSON(t, srv, http.MethodPatch, "/donations/"+donationID+"/progress", step.token, step.body)
		wantStatus(t, resp, http.StatusOK)
		var out struct {
			Donation struct {
				Status string `json:"status"`
			} `json:"donation"`
		}
		decodeBody(t, resp, &out)
		if out.Donation.Status != step.want {
			t.Fatalf("step %d: status = %q, want %q", i, out.Donation.Status, step.want)
		}
	}

	// Completed donations reject further edits and deletion.
	resp = doJSON(t, srv, http.MethodPatch, "/donations/"+donationID, donor, map[string]any{"title": "too late"})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodDelete, "/donations/"+donationID, donor, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestProgressForbiddenForStranger(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()
	receiver := uuid.NewString()
	donationID := createDonation(t, srv, donor)

	resp := doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/apply", receiver, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/choose-receiver", donor, map[string]any{"receiver_id": receiver})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPatch, "/donations/"+donationID+"/progress", uuid.NewString(), map[string]any{
		"pickup_confirmed_by_donor": true,
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// A party asserting the counterpart's flag is also forbidden.
	resp = doJSON(t, srv, http.MethodPatch, "/donations/"+donationID+"/progress", donor, map[string]any{
		"pickup_confirmed_by_receiver": true,
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// A body carrying no flags at all is a validation error, not a
	// permission failure.
	resp = doJSON(t, srv, http.MethodPatch, "/donations/"+donationID+"/progress", donor, map[string]any{})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestReturnRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()
	receiver := uuid.NewString()
	donationID := createDonation(t, srv, donor)

	resp := doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/apply", receiver, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/choose-receiver", donor, map[string]any{"receiver_id": receiver})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	for _, body := range []map[string]any{
		{"pickup_confirmed_by_donor": true},
	} {
		resp = doJSON(t, srv, http.MethodPatch, "/donations/"+donationID+"/progress", donor, body)
		wantStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}
	resp = doJSON(t, srv, http.MethodPatch, "/donations/"+donationID+"/progress", receiver, map[string]any{"pickup_confirmed_by_receiver": true})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Reason below the minimum length is rejected.
	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/signal-return", receiver, map[string]any{"reason": "broken"})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/signal-return", receiver, map[string]any{
		"reason": "the shelf arrived with a cracked side panel",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Only the receiver may signal a return; the donor confirms it.
	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/confirm-return", receiver, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/confirm-return", donor, nil)
	wantStatus(t, resp, http.StatusOK)
	var d struct {
		Status       string  `json:"status"`
		ReceiverID   *string `json:"receiver_id"`
		ReturnReason string  `json:"return_reason"`
	}
	decodeBody(t, resp, &d)
	if d.Status != "OPEN" {
		t.Errorf("status = %q, want OPEN after completed return", d.Status)
	}
	if d.ReceiverID != nil {
		t.Errorf("receiver_id = %v, want null after reopen", d.ReceiverID)
	}
	if d.ReturnReason != "" {
		t.Errorf("return_reason = %q, want cleared after reopen", d.ReturnReason)
	}
}

func TestAddressRedaction(t *testing.T) {
	srv := newTestServer(t)
	donor := uuid.NewString()
	receiver := uuid.NewString()
	stranger := uuid.NewString()
	donationID := createDonation(t, srv, donor)

	// While OPEN, everyone sees the pickup address.
	resp := doJSON(t, srv, http.MethodGet, "/donations/"+donationID, stranger, nil)
	wantStatus(t, resp, http.StatusOK)
	var open struct {
		AddressLine string `json:"address_line"`
	}
	decodeBody(t, resp, &open)
	if open.AddressLine == "" {
		t.Error("expected visible address while OPEN")
	}

	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/apply", receiver, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	resp = doJSON(t, srv, http.MethodPost, "/donations/"+donationID+"/choose-receiver", donor, map[string]any{"receiver_id": receiver})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	for viewer, wantAddress := range map[string]bool{donor: true, receiver: true, stranger: false} {
		resp = doJSON(t, srv, http.MethodGet, "/donations/"+donationID, viewer, nil)
		wantStatus(t, resp, http.StatusOK)
		var body struct {
			AddressLine string `json:"address_line"`
			PostalCode  string `json:"postal_code"`
		}
		decodeBody(t, resp, &body)
		got := body.AddressLine != ""
		if got != wantAddress {
			t.Errorf("viewer %s: address visible = %v, want %v", viewer, got, wantAddress)
		}
	}
}

func TestProfileHistoryOwnerOnly(t *testing.T) {
	srv := newTestServer(t)
	owner := uuid.NewString()

	resp := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/profiles/%s/history", owner), uuid.NewString(), nil)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/profiles/%s/history", owner), owner, nil)
	wantStatus(t, resp, http.StatusOK)
	var entries []json.RawMessage
	decodeBody(t, resp, &entries)
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}
