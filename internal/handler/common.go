package handler // handler defines http handlers

import (
    "errors"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the user_id set by the JWT middleware and converts it
// to uint64.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter.  Zero is rejected.
func pathID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id > 0
}

// queryInt parses an optional integer query parameter.  ok is false when
// the parameter is present but malformed.
func queryInt(c echo.Context, name string) (v int, present, ok bool) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return 0, false, true
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return 0, true, false
    }
    return n, true, true
}

// queryIDs parses a comma separated id list such as "1,2,3".
func queryIDs(c echo.Context, name string) ([]uint64, bool) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return nil, true
    }
    out := []uint64{}
    for _, part := range strings.Split(raw, ",") {
        part = strings.TrimSpace(part)
        if part == "" {
            continue
        }
        id, err := strconv.ParseUint(part, 10, 64)
        if err != nil {
            return nil, false
        }
        out = append(out, id)
    }
    return out, true
}
