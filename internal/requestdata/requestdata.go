package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleVendor Role = "VENDOR"
	RoleAdmin  Role = "ADMIN"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData identifies the authenticated caller for the lifetime of one
// request. VendorID is uuid.Nil for admin users not tied to a vendor.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	VendorID    uuid.UUID
	Role        Role
}

func (rd *RequestData) IsAdmin() bool {
	return rd != nil && rd.Role == RoleAdmin
}

// CanAccessVendor reports whether the caller may read or mutate the given
// vendor's documents.
func (rd *RequestData) CanAccessVendor(vendorID uuid.UUID) bool {
	if rd == nil {
		return false
	}
	return rd.Role == RoleAdmin || rd.VendorID == vendorID
}
