package domain

// Tree pairs a document with the id index built from it. Trees are immutable values;
// every change produces a new Tree through NewTree.
type Tree struct {
	doc Document
	idx Index
}

// NewTree indexes doc.
func NewTree(doc Document) Tree {
	return Tree{doc: doc, idx: BuildIndex(doc)}
}

// Document returns the tree's document. Callers must treat it as read-only.
func (t Tree) Document() Document {
	return t.doc
}

// Index returns the id index for the document.
func (t Tree) Index() Index {
	return t.idx
}
