package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadArticles(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "articles.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("loads articles with their ids", func(t *testing.T) {
		path := writeFile(t, `[
			{"id":"a-1","title":"One","contents":"first body"},
			{"id":"a-2","title":"Two","contents":"second body"}
		]`)

		items, err := LoadArticles(path)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a-1", items[0].ID)
		assert.Equal(t, "second body", items[1].Content)
	})

	t.Run("missing ids are assigned positionally", func(t *testing.T) {
		path := writeFile(t, `[
			{"title":"One","contents":"body"},
			{"id":"named","title":"Two","contents":"body"},
			{"title":"Three","contents":"body"}
		]`)

		items, err := LoadArticles(path)
		require.NoError(t, err)
		assert.Equal(t, "item_0", items[0].ID)
		assert.Equal(t, "named", items[1].ID)
		assert.Equal(t, "item_2", items[2].ID)
	})

	t.Run("unreadable or malformed files fail", func(t *testing.T) {
		_, err := LoadArticles(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)

		_, err = LoadArticles(writeFile(t, `{"not":"an array"}`))
		require.Error(t, err)
	})
}

func TestArticleValidate(t *testing.T) {
	assert.NoError(t, Article{ID: "a", Content: "body"}.Validate())
	assert.Error(t, Article{Content: "body"}.Validate())
	assert.Error(t, Article{ID: "a", Content: "   "}.Validate())
}
