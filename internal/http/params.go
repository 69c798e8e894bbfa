package http

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 50
	defaultRunsLimit = 20
)

type listProductsParams struct {
	Limit  int32 `validate:"gte=1,lte=500"`
	Offset int32 `validate:"gte=0"`
}

type imageBatchParams struct {
	Limit int32 `validate:"gte=0,lte=1000"`
}

type listSyncRunsParams struct {
	Kind  string `validate:"omitempty,oneof=import images"`
	Limit int32  `validate:"gte=1,lte=200"`
}

// queryInt32 reads an optional integer query parameter.
func queryInt32(r *http.Request, name string, def int32) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q must be an integer", name)
	}
	return int32(n), nil
}
