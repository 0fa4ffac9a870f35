// Package mocks provides gomock mocks for campaign-desk interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserLister(ctrl)
//	users.EXPECT().ListUsers(gomock.Any()).Return(json.RawMessage(`[]`), nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_lister_mock.go github.com/joestump/campaign-desk/internal/dataservice UserLister
