package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"centime/internal/domain/account"
)

type listAccountRepo struct {
	stubAccountRepo
	GetByIDFunc      func(ctx context.Context, id string) (*account.Account, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*account.Account, error)
}

func (m *listAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *listAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func TestHandleListAccounts(t *testing.T) {
	repo := &listAccountRepo{
		ListByUserIDFunc: func(ctx context.Context, userID int64) ([]*account.Account, error) {
			if userID != 1 {
				t.Errorf("userID = %d, want 1", userID)
			}
			return []*account.Account{ownedAccount("acc-1", 1)}, nil
		},
	}
	handler := NewAccountHandler(account.NewService(repo))

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/accounts/", nil))
	rec := httptest.NewRecorder()
	handler.HandleListAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got []*account.Account
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "acc-1" {
		t.Errorf("accounts = %+v, want one entry acc-1", got)
	}
}

func TestHandleListAccountsEmptyIsArray(t *testing.T) {
	handler := NewAccountHandler(account.NewService(&listAccountRepo{}))

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/accounts/", nil))
	rec := httptest.NewRecorder()
	handler.HandleListAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestHandleAccountByID(t *testing.T) {
	repo := &listAccountRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*account.Account, error) {
			switch id {
			case "acc-1":
				return ownedAccount("acc-1", 1), nil
			case "acc-other":
				return ownedAccount("acc-other", 99), nil
			}
			return nil, account.ErrAccountNotFound
		},
	}
	handler := NewAccountHandler(account.NewService(repo))

	get := func(t *testing.T, id string) *httptest.ResponseRecorder {
		t.Helper()
		req := authenticated(httptest.NewRequest(http.MethodGet, "/api/accounts/"+id, nil))
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		handler.HandleAccountByID(rec, req)
		return rec
	}

	t.Run("owned", func(t *testing.T) {
		rec := get(t, "acc-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var got account.Account
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if got.ID != "acc-1" {
			t.Errorf("account ID = %q, want %q", got.ID, "acc-1")
		}
	})

	t.Run("not found", func(t *testing.T) {
		if rec := get(t, "nope"); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("foreign account", func(t *testing.T) {
		if rec := get(t, "acc-other"); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts/acc-1", nil)
		req.SetPathValue("id", "acc-1")
		rec := httptest.NewRecorder()
		handler.HandleAccountByID(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
