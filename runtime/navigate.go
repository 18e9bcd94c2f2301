package cbor

// This file is the bounded-traversal layer: entering and exiting
// containers, rewinding, peeking ahead, and order-independent lookup
// of map entries by label.

// EnterArray consumes an array head and bounds traversal to its
// contents until ExitArray. The array may be empty.
func (d *Decoder) EnterArray() error {
	return d.enterContainer(ArrayType)
}

// EnterMap consumes a map head and bounds traversal to its contents
// until ExitMap.
func (d *Decoder) EnterMap() error {
	want := MapType
	if d.mode == DecodeModeMapAsArray {
		want = ArrayAsMapType
	}
	return d.enterContainer(want)
}

func (d *Decoder) enterContainer(want DataType) error {
	if d.err != nil {
		return d.err
	}
	it, err := d.next(true)
	if err != nil {
		return err
	}
	if it.Type != want {
		terr := &TypeError{Want: want, Got: it.Type}
		d.recordError(terr)
		return terr
	}
	f := &d.nest[d.depth-1]
	f.bounded = true
	end, err := containerEnd(d.c.in, f, d.depth)
	if err != nil {
		d.recordError(err)
		return err
	}
	f.end = end
	return nil
}

// containerEnd scans from the frame's first content byte to the offset
// just past the container, including the break of an indefinite one.
func containerEnd(in []byte, f *nestFrame, depth int) (int, error) {
	sc := cursor{in: in, off: f.start}
	if f.definite {
		for i := uint32(0); i < f.total; i++ {
			if err := skipItem(&sc, depth); err != nil {
				return 0, err
			}
		}
		return sc.off, nil
	}
	for {
		b, ok := sc.peekByte()
		if !ok {
			return 0, ErrHitEnd
		}
		if b == breakByte {
			return sc.off + 1, nil
		}
		if err := skipItem(&sc, depth); err != nil {
			return 0, err
		}
	}
}

// boundedTop returns the innermost entered frame, or an error when
// nothing was entered or the entered container is the wrong kind.
func (d *Decoder) boundedTop(wantMap bool) (int, error) {
	for i := d.depth - 1; i >= 0; i-- {
		f := &d.nest[i]
		if !f.bounded {
			continue
		}
		if f.wireMap != wantMap {
			return 0, ErrMapNotEntered
		}
		return i, nil
	}
	return 0, ErrMapNotEntered
}

// ExitArray leaves the innermost entered array, regardless of where
// inside it traversal currently stands.
func (d *Decoder) ExitArray() error {
	return d.exitContainer(false)
}

// ExitMap leaves the innermost entered map.
func (d *Decoder) ExitMap() error {
	return d.exitContainer(true)
}

func (d *Decoder) exitContainer(wantMap bool) error {
	if d.err != nil {
		return d.err
	}
	idx, err := d.boundedTop(wantMap)
	if err != nil {
		d.recordError(err)
		return err
	}
	f := &d.nest[idx]
	d.c.seek(f.end)
	d.depth = idx
	return d.settle()
}

// Rewind moves traversal back to the first item of the innermost
// entered container, or to the start of the input when nothing was
// entered. A pending well-formedness error still blocks traversal.
func (d *Decoder) Rewind() {
	if d.sticky {
		return
	}
	for i := d.depth - 1; i >= 0; i-- {
		f := &d.nest[i]
		if !f.bounded {
			continue
		}
		d.depth = i + 1
		f.remaining = f.total
		d.c.seek(f.start)
		return
	}
	d.depth = 0
	d.c.seek(0)
}

// Peek decodes the next item without consuming it. Errors are recorded
// the same way GetNext records them.
func (d *Decoder) Peek() (Item, error) {
	if d.err != nil {
		return Item{}, d.err
	}
	saveOff := d.c.tell()
	saveDepth := d.depth
	saveNest := d.nest
	it, err := d.decodeItem(false)
	d.c.seek(saveOff)
	d.depth = saveDepth
	d.nest = saveNest
	if err != nil {
		if err != ErrNoMoreItems {
			d.recordError(err)
		}
		return Item{}, err
	}
	return it, nil
}

// NextItemSpan reports the byte range [start, end) that the next item
// occupies, tags and nested contents included, without consuming it.
func (d *Decoder) NextItemSpan() (start, end int, err error) {
	if d.err != nil {
		return 0, 0, d.err
	}
	sc := d.c
	start = sc.off
	if err := skipItem(&sc, d.depth); err != nil {
		if err != ErrNoMoreItems {
			d.recordError(err)
		}
		return 0, 0, err
	}
	return start, sc.off, nil
}

// NLabel makes an integer map label.
func NLabel(n int64) Label { return Label{Type: Int64Type, Int: n} }

// SZLabel makes a text-string map label.
func SZLabel(s string) Label { return Label{Type: TextStringType, Bytes: []byte(s)} }

// MapQuery names one map entry to fetch in a single scan. Want
// restricts the value's type; None accepts anything.
type MapQuery struct {
	Label Label
	Want  DataType
	Item  Item
	Found bool
}

// MapEntryFunc is called for each map entry no query matched.
type MapEntryFunc func(it Item) error

// GetItemsInMap fetches all queried labels in one scan of the innermost
// entered map. Lookup is independent of entry order. Every label in
// the map is decoded, so a duplicate is detected even when it is not
// being queried for. Traversal position is unchanged.
func (d *Decoder) GetItemsInMap(qs []MapQuery) error {
	return d.GetItemsInMapWithCallback(qs, nil)
}

// GetItemsInMapWithCallback is GetItemsInMap with unmatched entries
// handed to fn. An error from fn aborts the scan and surfaces as
// ErrCallbackFailed.
func (d *Decoder) GetItemsInMapWithCallback(qs []MapQuery, fn MapEntryFunc) error {
	if d.err != nil {
		return d.err
	}
	idx, err := d.boundedTop(true)
	if err != nil {
		d.recordError(err)
		return err
	}
	if !d.nest[idx].isMap {
		d.recordError(ErrMapNotEntered)
		return ErrMapNotEntered
	}
	if err := d.scanMap(&d.nest[idx], qs, fn); err != nil {
		d.recordError(err)
		return err
	}
	for i := range qs {
		if !qs[i].Found {
			d.recordError(ErrLabelNotFound)
			return ErrLabelNotFound
		}
	}
	return nil
}

// scanMap walks every entry of the entered map frame with a detached
// decoder, so the caller's traversal position is untouched. Values of
// unmatched entries are raw-skipped unless a callback wants them.
func (d *Decoder) scanMap(f *nestFrame, qs []MapQuery, fn MapEntryFunc) error {
	sub := Decoder{c: cursor{in: d.c.in, off: f.start}, mode: d.mode, alloc: d.alloc}
	sub.nest[0] = *f
	sub.nest[0].remaining = sub.nest[0].total
	sub.depth = 1

	var seen []Label
	for {
		if done, err := sub.scanAtEnd(); err != nil {
			return err
		} else if done {
			return nil
		}
		lab, err := sub.decodeOne()
		if err != nil {
			return err
		}
		label, labAlloc, err := d.labelFrom(lab)
		if err != nil {
			return err
		}
		for i := range seen {
			if label.equal(seen[i]) {
				return ErrDuplicateLabel
			}
		}
		seen = append(seen, label)
		match := -1
		for i := range qs {
			if label.equal(qs[i].Label) {
				match = i
				break
			}
		}
		switch {
		case match >= 0:
			it, err := sub.valueItem()
			if err != nil {
				return err
			}
			q := &qs[match]
			if q.Want != None && it.Type != q.Want {
				return &TypeError{Want: q.Want, Got: it.Type}
			}
			it.Label = label
			it.LabelAllocated = labAlloc
			q.Item = it
			q.Found = true
		case fn != nil:
			it, err := sub.valueItem()
			if err != nil {
				return err
			}
			it.Label = label
			it.LabelAllocated = labAlloc
			if err := fn(it); err != nil {
				return ErrCallbackFailed
			}
		default:
			// Label bytes stay live in seen until the scan ends.
			if err := skipItem(&sub.c, sub.depth); err != nil {
				return err
			}
		}
		if sub.nest[0].definite {
			sub.nest[0].remaining -= 2
		}
	}
}

// scanAtEnd reports whether the scan frame is exhausted. An indefinite
// map ending between a label and its value is not well-formed.
func (d *Decoder) scanAtEnd() (bool, error) {
	f := &d.nest[0]
	if f.definite {
		return f.remaining == 0, nil
	}
	b, ok := d.c.peekByte()
	if !ok {
		return false, ErrHitEnd
	}
	return b == breakByte, nil
}

// valueItem decodes one map value in place. A container value is
// returned as its head item with the contents raw-skipped, so the scan
// cursor lands on the next label either way.
func (d *Decoder) valueItem() (Item, error) {
	it, err := d.decodeOne()
	if err != nil {
		return Item{}, err
	}
	if it.opensContainer() {
		if it.Indefinite {
			for {
				b, ok := d.c.peekByte()
				if !ok {
					return Item{}, ErrHitEnd
				}
				if b == breakByte {
					d.c.off++
					break
				}
				if err := skipItem(&d.c, d.depth); err != nil {
					return Item{}, err
				}
			}
		} else {
			for i, n := uint32(0), frameItems(&it); i < n; i++ {
				if err := skipItem(&d.c, d.depth); err != nil {
					return Item{}, err
				}
			}
		}
	}
	it.Level = d.depth
	it.NextLevel = d.depth
	return it, nil
}

// GetItemInMapN fetches the value under an integer label in the
// innermost entered map.
func (d *Decoder) GetItemInMapN(label int64) (Item, error) {
	return d.getInMap(NLabel(label), None)
}

// GetItemInMapSZ fetches the value under a text-string label.
func (d *Decoder) GetItemInMapSZ(label string) (Item, error) {
	return d.getInMap(SZLabel(label), None)
}

func (d *Decoder) getInMap(label Label, want DataType) (Item, error) {
	qs := [1]MapQuery{{Label: label, Want: want}}
	if err := d.GetItemsInMap(qs[:]); err != nil {
		return Item{}, err
	}
	return qs[0].Item, nil
}

// GetInt64InMapN fetches an integer value under an integer label.
func (d *Decoder) GetInt64InMapN(label int64) (int64, error) {
	it, err := d.getInMap(NLabel(label), Int64Type)
	return it.Int, err
}

// GetInt64InMapSZ fetches an integer value under a text-string label.
func (d *Decoder) GetInt64InMapSZ(label string) (int64, error) {
	it, err := d.getInMap(SZLabel(label), Int64Type)
	return it.Int, err
}

// GetUInt64InMapN fetches a non-negative integer of either width.
func (d *Decoder) GetUInt64InMapN(label int64) (uint64, error) {
	return d.getUint(NLabel(label))
}

// GetUInt64InMapSZ is GetUInt64InMapN for a text-string label.
func (d *Decoder) GetUInt64InMapSZ(label string) (uint64, error) {
	return d.getUint(SZLabel(label))
}

func (d *Decoder) getUint(label Label) (uint64, error) {
	it, err := d.getInMap(label, None)
	if err != nil {
		return 0, err
	}
	switch it.Type {
	case UInt64Type:
		return it.Uint, nil
	case Int64Type:
		if it.Int < 0 {
			err := ErrNumberSignConversion
			d.recordError(err)
			return 0, err
		}
		return uint64(it.Int), nil
	default:
		terr := &TypeError{Want: UInt64Type, Got: it.Type}
		d.recordError(terr)
		return 0, terr
	}
}

// GetBytesInMapN fetches a byte-string value under an integer label.
func (d *Decoder) GetBytesInMapN(label int64) ([]byte, error) {
	it, err := d.getInMap(NLabel(label), ByteStringType)
	return it.Bytes, err
}

// GetBytesInMapSZ fetches a byte-string value under a text label.
func (d *Decoder) GetBytesInMapSZ(label string) ([]byte, error) {
	it, err := d.getInMap(SZLabel(label), ByteStringType)
	return it.Bytes, err
}

// GetTextInMapN fetches a text-string value under an integer label.
func (d *Decoder) GetTextInMapN(label int64) (string, error) {
	it, err := d.getInMap(NLabel(label), TextStringType)
	return string(it.Bytes), err
}

// GetTextInMapSZ fetches a text-string value under a text label.
func (d *Decoder) GetTextInMapSZ(label string) (string, error) {
	it, err := d.getInMap(SZLabel(label), TextStringType)
	return string(it.Bytes), err
}

// GetBoolInMapN fetches a boolean value under an integer label.
func (d *Decoder) GetBoolInMapN(label int64) (bool, error) {
	return d.getBool(NLabel(label))
}

// GetBoolInMapSZ fetches a boolean value under a text label.
func (d *Decoder) GetBoolInMapSZ(label string) (bool, error) {
	return d.getBool(SZLabel(label))
}

func (d *Decoder) getBool(label Label) (bool, error) {
	it, err := d.getInMap(label, None)
	if err != nil {
		return false, err
	}
	switch it.Type {
	case TrueType:
		return true, nil
	case FalseType:
		return false, nil
	default:
		terr := &TypeError{Want: TrueType, Got: it.Type}
		d.recordError(terr)
		return false, terr
	}
}

// GetDoubleInMapN fetches a floating-point value under an integer
// label, widening halves and singles.
func (d *Decoder) GetDoubleInMapN(label int64) (float64, error) {
	return d.getDouble(NLabel(label))
}

// GetDoubleInMapSZ fetches a floating-point value under a text label.
func (d *Decoder) GetDoubleInMapSZ(label string) (float64, error) {
	return d.getDouble(SZLabel(label))
}

func (d *Decoder) getDouble(label Label) (float64, error) {
	it, err := d.getInMap(label, None)
	if err != nil {
		return 0, err
	}
	switch it.Type {
	case HalfFloatType, FloatType, DoubleType:
		return it.F, nil
	default:
		terr := &TypeError{Want: DoubleType, Got: it.Type}
		d.recordError(terr)
		return 0, terr
	}
}

// EnterArrayFromMapN positions traversal inside the array stored under
// an integer label of the innermost entered map.
func (d *Decoder) EnterArrayFromMapN(label int64) error {
	return d.enterFromMap(NLabel(label), false)
}

// EnterArrayFromMapSZ is EnterArrayFromMapN for a text-string label.
func (d *Decoder) EnterArrayFromMapSZ(label string) error {
	return d.enterFromMap(SZLabel(label), false)
}

// EnterMapFromMapN positions traversal inside the map stored under an
// integer label of the innermost entered map.
func (d *Decoder) EnterMapFromMapN(label int64) error {
	return d.enterFromMap(NLabel(label), true)
}

// EnterMapFromMapSZ is EnterMapFromMapN for a text-string label.
func (d *Decoder) EnterMapFromMapSZ(label string) error {
	return d.enterFromMap(SZLabel(label), true)
}

// enterFromMap seeks to the labeled entry's value and enters it. The
// duplicate scan runs first, then the cursor jumps to the value head,
// so traversal continues inside that entry and, after Exit, right
// behind it.
func (d *Decoder) enterFromMap(label Label, wantMap bool) error {
	if d.err != nil {
		return d.err
	}
	idx, err := d.boundedTop(true)
	if err != nil {
		d.recordError(err)
		return err
	}
	f := &d.nest[idx]
	if !f.isMap {
		d.recordError(ErrMapNotEntered)
		return ErrMapNotEntered
	}
	valOff, after, err := d.findValueOffset(f, label)
	if err != nil {
		d.recordError(err)
		return err
	}

	// Abandon any descent below the map and jump to the entry.
	d.depth = idx + 1
	d.c.seek(valOff)
	if f.definite {
		f.remaining = after
	}

	it, err := d.decodeOne()
	if err != nil {
		d.recordError(err)
		return err
	}
	want := ArrayType
	if wantMap {
		want = MapType
		if d.mode == DecodeModeMapAsArray {
			want = ArrayAsMapType
		}
	}
	if it.Type != want {
		terr := &TypeError{Want: want, Got: it.Type}
		d.recordError(terr)
		return terr
	}
	if d.depth == MaxNestingDepth {
		d.recordError(ErrNestingTooDeep)
		return ErrNestingTooDeep
	}
	rem := frameItems(&it)
	d.nest[d.depth] = nestFrame{
		isMap:     it.Type == MapType && d.mode != DecodeModeMapAsArray,
		wireMap:   wantMap,
		definite:  !it.Indefinite,
		total:     rem,
		remaining: rem,
		start:     d.c.tell(),
		bounded:   true,
	}
	d.depth++
	nf := &d.nest[d.depth-1]
	end, err := containerEnd(d.c.in, nf, d.depth)
	if err != nil {
		d.recordError(err)
		return err
	}
	nf.end = end
	return nil
}

// findValueOffset scans the map frame for the label, enforcing label
// uniqueness. It returns the offset of the value head and how many
// items of the frame remain behind that entry.
func (d *Decoder) findValueOffset(f *nestFrame, label Label) (int, uint32, error) {
	sub := Decoder{c: cursor{in: d.c.in, off: f.start}, mode: d.mode, alloc: d.alloc}
	sub.nest[0] = *f
	sub.nest[0].remaining = sub.nest[0].total
	sub.depth = 1

	valOff := -1
	var after uint32
	var seen []Label
	for {
		if done, err := sub.scanAtEnd(); err != nil {
			return 0, 0, err
		} else if done {
			break
		}
		lab, err := sub.decodeOne()
		if err != nil {
			return 0, 0, err
		}
		got, _, err := d.labelFrom(lab)
		if err != nil {
			return 0, 0, err
		}
		for i := range seen {
			if got.equal(seen[i]) {
				return 0, 0, ErrDuplicateLabel
			}
		}
		seen = append(seen, got)
		off := sub.c.tell()
		if err := skipItem(&sub.c, sub.depth); err != nil {
			return 0, 0, err
		}
		if got.equal(label) {
			valOff = off
			after = 0
		} else if valOff >= 0 {
			after += 2
		}
		if sub.nest[0].definite {
			sub.nest[0].remaining -= 2
		}
	}
	if valOff < 0 {
		return 0, 0, ErrLabelNotFound
	}
	return valOff, after, nil
}
