package nodes

import "strings"

// Reconcile returns a sequence that renders to text under r while reusing
// the nodes of prev. Leading and trailing nodes whose rendering is unchanged
// are kept as they are. Inside the edited span a reference survives while
// its rendered name is still present, and new Text and LineBreak nodes take
// over the ids of replaced nodes of the same kind.
func Reconcile(prev Sequence, r NameResolver, text string) Sequence {
	pieces := make([]string, len(prev))
	for i, n := range prev {
		pieces[i] = Render(Sequence{n}, r)
	}

	head, headLen := 0, 0
	for head < len(prev) && strings.HasPrefix(text[headLen:], pieces[head]) {
		headLen += len(pieces[head])
		head++
	}
	tail, tailLen := len(prev), 0
	for tail > head && strings.HasSuffix(text[headLen:len(text)-tailLen], pieces[tail-1]) {
		tailLen += len(pieces[tail-1])
		tail--
	}

	out := make(Sequence, 0, len(prev)+2)
	out = append(out, prev[:head]...)
	out = append(out, rebuild(prev[head:tail], pieces[head:tail], text[headLen:len(text)-tailLen])...)
	return append(out, prev[tail:]...)
}

// rebuild turns the edited span back into nodes, keeping the references of
// old whose rendering still appears in order.
func rebuild(old Sequence, pieces []string, text string) Sequence {
	pool := newIDPool(old)
	var out Sequence
	for i, n := range old {
		switch n.(type) {
		case CharacterRef, LocationRef:
		default:
			continue
		}
		if pieces[i] == "" {
			continue
		}
		at := strings.Index(text, pieces[i])
		if at < 0 {
			continue
		}
		out = append(out, pool.prose(text[:at])...)
		out = append(out, n)
		text = text[at+len(pieces[i]):]
	}
	return append(out, pool.prose(text)...)
}

type idPool struct {
	text, breaks []string
}

func newIDPool(seq Sequence) *idPool {
	p := &idPool{}
	for _, n := range seq {
		switch n.(type) {
		case Text:
			p.text = append(p.text, n.NodeID())
		case LineBreak:
			p.breaks = append(p.breaks, n.NodeID())
		}
	}
	return p
}

func (p *idPool) prose(text string) Sequence {
	seq := FromProse(text)
	for i, n := range seq {
		switch v := n.(type) {
		case Text:
			if id, ok := pop(&p.text); ok {
				v.ID = id
				seq[i] = v
			}
		case LineBreak:
			if id, ok := pop(&p.breaks); ok {
				v.ID = id
				seq[i] = v
			}
		}
	}
	return seq
}

func pop(ids *[]string) (string, bool) {
	if len(*ids) == 0 {
		return "", false
	}
	id := (*ids)[0]
	*ids = (*ids)[1:]
	return id, true
}
