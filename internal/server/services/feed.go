package services

import "github.com/dmitrijs2005/gophsocial/internal/server/models"

// RankFeed orders posts, already sorted newest first, for a viewer whose
// circle is their friends plus themselves.
//
// With no circle-authored post the input is returned as is. Otherwise a
// search keeps only circle posts, and a plain feed lists circle posts
// before everyone else's. Relative order is preserved within each group.
func RankFeed(posts []*models.Post, circle []string, searching bool) []*models.Post {
	inCircle := make(map[string]struct{}, len(circle))
	for _, id := range circle {
		inCircle[id] = struct{}{}
	}

	friends := make([]*models.Post, 0, len(posts))
	others := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := inCircle[p.UserID]; ok {
			friends = append(friends, p)
		} else {
			others = append(others, p)
		}
	}

	if len(friends) == 0 {
		return posts
	}
	if searching {
		return friends
	}
	return append(friends, others...)
}
