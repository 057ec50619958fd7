package services

import (
	"sort"

	"github.com/Dosada05/notes-app/models"
)

// BuildNoteTree собирает плоский список заметок в дерево.
// Соседи упорядочены по position, затем по id. Заметки, чей родитель
// отсутствует в списке, поднимаются в корень. Если parent_id образуют
// цикл, первая по порядку заметка цикла тоже становится корнем, так что
// в дерево попадает каждая заметка.
func BuildNoteTree(notes []models.Note) []*models.NoteNode {
	nodes := make(map[int]*models.NoteNode, len(notes))
	for _, n := range notes {
		nodes[n.ID] = &models.NoteNode{
			ID:       n.ID,
			ParentID: n.ParentID,
			Title:    n.Title,
			Position: n.Position,
			Children: []*models.NoteNode{},
		}
	}

	roots := make([]*models.NoteNode, 0)
	for _, n := range notes {
		node := nodes[n.ID]
		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	reached := make(map[int]bool, len(notes))
	for _, root := range roots {
		markReached(root, reached)
	}
	for _, n := range notes {
		if reached[n.ID] {
			continue
		}
		node := nodes[n.ID]
		parent := nodes[*n.ParentID]
		parent.Children = detachChild(parent.Children, node)
		roots = append(roots, node)
		markReached(node, reached)
	}

	sortNodes(roots)
	return roots
}

func markReached(node *models.NoteNode, reached map[int]bool) {
	if reached[node.ID] {
		return
	}
	reached[node.ID] = true
	for _, child := range node.Children {
		markReached(child, reached)
	}
}

func detachChild(children []*models.NoteNode, node *models.NoteNode) []*models.NoteNode {
	for i, c := range children {
		if c == node {
			return append(children[:i], children[i+1:]...)
		}
	}
	return children
}

func sortNodes(nodes []*models.NoteNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Position != nodes[j].Position {
			return nodes[i].Position < nodes[j].Position
		}
		return nodes[i].ID < nodes[j].ID
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// isDescendant сообщает, находится ли candidate в поддереве noteID (включая сам noteID).
func isDescendant(notes []models.Note, noteID, candidate int) bool {
	parents := make(map[int]*int, len(notes))
	for _, n := range notes {
		parents[n.ID] = n.ParentID
	}

	seen := make(map[int]bool)
	for cur := &candidate; cur != nil; cur = parents[*cur] {
		if *cur == noteID {
			return true
		}
		if seen[*cur] {
			return false
		}
		seen[*cur] = true
	}
	return false
}
