package utils

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
    tests := []struct {
        name               string
        page, limit, total int
        want               PageMeta
    }{
        {"defaults", 0, 0, 25, PageMeta{Page: 1, Limit: 10, Total: 25, LastPage: 3}},
        {"exact division", 2, 10, 30, PageMeta{Page: 2, Limit: 10, Total: 30, LastPage: 3}},
        {"partial last page", 1, 10, 31, PageMeta{Page: 1, Limit: 10, Total: 31, LastPage: 4}},
        {"empty result keeps page one", 1, 10, 0, PageMeta{Page: 1, Limit: 10, Total: 0, LastPage: 1}},
        {"limit capped at 100", 1, 500, 1000, PageMeta{Page: 1, Limit: 100, Total: 1000, LastPage: 10}},
        {"negative inputs normalized", -3, -1, 5, PageMeta{Page: 1, Limit: 10, Total: 5, LastPage: 1}},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            assert.Equal(t, tt.want, Paginate(tt.page, tt.limit, tt.total))
        })
    }
}

func TestOffset(t *testing.T) {
    assert.Equal(t, 0, PageMeta{Page: 1, Limit: 10}.Offset())
    assert.Equal(t, 40, PageMeta{Page: 5, Limit: 10}.Offset())
    assert.Equal(t, 75, PageMeta{Page: 4, Limit: 25}.Offset())
}
