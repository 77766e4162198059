package fcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationDataCarriesKindAndDeepLink(t *testing.T) {
	n := Notification{
		Kind:     KindNewMail,
		Title:    "New customer email",
		Body:     "Re: leaking valve",
		ThreadID: "t1",
	}

	data := n.data()
	assert.Equal(t, "thread_update", data["type"])
	assert.Equal(t, "t1", data["thread_id"])
	assert.Equal(t, "/inbox/t1", data["click_action"])
}

func TestNotificationDataAssignmentKind(t *testing.T) {
	n := Notification{Kind: KindAssigned, ThreadID: "t2"}

	data := n.data()
	assert.Equal(t, "thread_assigned", data["type"])
	assert.Equal(t, "/inbox/t2", data["click_action"])
}
