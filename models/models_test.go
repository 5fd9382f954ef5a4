package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user := NewUser(" reader ", " Reader@Example.COM", "hash", "member")

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "reader", user.Username)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, "member", user.Role)
	assert.Empty(t, user.Permissions)
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUser_PasswordHashNeverSerialized(t *testing.T) {
	user := NewUser("reader", "reader@example.com", "$2a$10$secret", "member")

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}

func TestUser_Permissions(t *testing.T) {
	user := NewUser("librarian", "lib@example.com", "hash", "librarian")
	user.Permissions = []string{"can_delete_book", "can_add_book"}

	assert.True(t, user.HasPermission("can_add_book"))
	assert.False(t, user.HasPermission("can_change_book"))
	assert.Equal(t, []string{"can_add_book", "can_delete_book"}, user.SortedPermissions())
	assert.Equal(t, []string{"can_delete_book", "can_add_book"}, user.Permissions)
}

func TestUser_Public(t *testing.T) {
	user := NewUser("reader", "reader@example.com", "hash", "admin")
	user.Bio = "likes novels"

	public := user.Public()

	assert.Equal(t, user.ID, public.ID)
	assert.Equal(t, "likes novels", public.Bio)
	data, err := json.Marshal(public)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "admin")
	assert.NotContains(t, string(data), "email")
}

func TestNewPostAndComment(t *testing.T) {
	authorID := uuid.New()
	post := NewPost(authorID, "Title", "Body")
	comment := NewComment(post.ID, uuid.New(), "Nice")

	assert.Equal(t, authorID, post.AuthorID)
	assert.Equal(t, "posts", post.TableName())
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "comments", comment.TableName())
}

func TestNewAuthorAndBook(t *testing.T) {
	author := NewAuthor("Ursula K. Le Guin")
	book := NewBook(author.ID, "The Dispossessed", 1974)

	assert.NotNil(t, author.Books)
	assert.Equal(t, author.ID, book.AuthorID)
	assert.Equal(t, 1974, book.PublicationYear)
	assert.Equal(t, "books", book.TableName())
}

func TestNotification_WithTarget(t *testing.T) {
	recipient, actor, post := uuid.New(), uuid.New(), uuid.New()

	n := NewNotification(recipient, actor, VerbCommentedOnPost)
	assert.Nil(t, n.TargetID)
	assert.False(t, n.Read)

	n.WithTarget("post", post)
	require.NotNil(t, n.TargetID)
	assert.Equal(t, post, *n.TargetID)
	assert.Equal(t, "post", *n.TargetType)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"  Café  Society ", "cafe-society"},
		{"C++ & Go!", "c-go"},
		{"--Hello--World--", "hello-world"},
		{"snake_case", "snake_case"},
		{"日本", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestNewTag(t *testing.T) {
	tag := NewTag(" Hard SF ")

	assert.NotEqual(t, uuid.Nil, tag.ID)
	assert.Equal(t, "Hard SF", tag.Name)
	assert.Equal(t, "hard-sf", tag.Slug)
}

func TestSplitTagList(t *testing.T) {
	assert.Equal(t, []string{"dune", "sci-fi"}, SplitTagList(" dune, ,sci-fi,"))
	assert.Nil(t, SplitTagList(" , "))
}
