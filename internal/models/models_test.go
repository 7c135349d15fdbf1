package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResources_ExposeOwnerAndInviteLink(t *testing.T) {
	token := "link-token"
	expiry := time.Now().Add(time.Hour)

	resources := []Resource{
		&Team{ID: 1, Name: "Core", OwnerID: 7},
		&Project{ID: 2, Title: "Launch", OwnerID: 7},
	}

	for _, r := range resources {
		assert.Equal(t, uint64(7), r.GetOwnerID())
		r.SetInviteLink(&token, &expiry)
		gotToken, gotExpiry := r.InviteLink()
		assert.Equal(t, &token, gotToken)
		assert.Equal(t, &expiry, gotExpiry)
	}

	assert.Equal(t, ResourceTeam, resources[0].Kind())
	assert.Equal(t, "Launch", resources[1].DisplayName())
}

func TestMembership_SameAndPending(t *testing.T) {
	a := &Membership{ResourceType: ResourceTeam, ResourceID: 1, UserID: 2}
	b := &Membership{ResourceType: ResourceTeam, ResourceID: 1, UserID: 2, AcceptedInvite: true}
	c := &Membership{ResourceType: ResourceProject, ResourceID: 1, UserID: 2}

	assert.True(t, a.Same(b))
	assert.False(t, a.Same(c))
	assert.True(t, a.Pending())
	assert.False(t, b.Pending())
}
