package session

import (
	"sort"

	"chatdock/internal/models"
)

// SortOverflow orders the overflow ("more chats") list in place: unread
// badge descending with zero last, then online-participant count
// descending. Ties keep their original order.
func SortOverflow(rooms []*models.Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Badge != rooms[j].Badge {
			return rooms[i].Badge > rooms[j].Badge
		}
		return rooms[i].OnlineUserCount > rooms[j].OnlineUserCount
	})
}
