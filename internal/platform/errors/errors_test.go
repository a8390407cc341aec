package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	base := New(CodeNotFound, "location not found")
	wrapped := fmt.Errorf("get location: %w", base)

	if !stderrors.Is(wrapped, New(CodeNotFound, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(wrapped, New(CodeLocationEmptyName, "location not found")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(CodeStorageUnavailable, "store unreachable", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "store unreachable" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodeLocationEmptyCampaignID, codes.InvalidArgument},
		{CodeLocationEmptyName, codes.InvalidArgument},
		{CodeLocationChildHandlingUnset, codes.InvalidArgument},
		{CodeNotFound, codes.NotFound},
		{CodeStorageUnavailable, codes.Unavailable},
		{CodeCancelled, codes.Canceled},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("code %s: expected grpc code %v, got %v", tc.code, tc.want, got)
		}
	}
}

func TestToGRPCStatusCarriesErrorInfo(t *testing.T) {
	t.Parallel()

	err := WithMetadata(CodeNotFound, "location not found", map[string]string{"location_id": "loc-1"})
	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected a grpc status error")
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("expected NotFound status, got %v", st.Code())
	}
	if len(st.Details()) == 0 {
		t.Fatal("expected ErrorInfo details on the status")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{New(CodeLocationEmptyID, "id required"), http.StatusBadRequest},
		{fmt.Errorf("lookup: %w", New(CodeNotFound, "missing")), http.StatusNotFound},
		{New(CodeStorageUnavailable, "down"), http.StatusServiceUnavailable},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err, http.StatusInternalServerError); got != tc.want {
			t.Fatalf("expected HTTP status %d for %v, got %d", tc.want, tc.err, got)
		}
	}
}
