package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Normalized(t *testing.T) {
	assert.Equal(t, PageRequest{Limit: DefaultPageLimit}, PageRequest{}.Normalized())
	assert.Equal(t, PageRequest{Limit: MaxPageLimit, Offset: 10}, PageRequest{Limit: 500, Offset: 10}.Normalized())
	assert.Equal(t, PageRequest{Limit: 5}, PageRequest{Limit: 5, Offset: -3}.Normalized())
}

func TestPageRequest_Page(t *testing.T) {
	p := PageRequest{Limit: 20, Offset: 20}
	assert.Equal(t, PageResponse{Limit: 20, Offset: 20, Total: 45, HasMore: true}, p.Page(45))
	assert.False(t, p.Page(40).HasMore)
}
