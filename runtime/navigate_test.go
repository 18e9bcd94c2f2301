package cbor

import (
	"errors"
	"testing"
)

func TestEnterExitMap(t *testing.T) {
	needTextLabels(t)
	// {"first": 1, "second": [2, 3], "third": "x"}
	in := mustHex(t, "a365666972737401667365636f6e648202036574686972646178")
	d := NewDecoder(in)
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	v, err := d.GetInt64InMapSZ("first")
	if err != nil || v != 1 {
		t.Fatalf("first: %d %v", v, err)
	}
	s, err := d.GetTextInMapSZ("third")
	if err != nil || s != "x" {
		t.Fatalf("third: %q %v", s, err)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("ExitMap: %v", err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestMapLookupOrderIndependent(t *testing.T) {
	needTextLabels(t)
	// the same three entries in two orders
	encodings := []string{
		"a3616101616202616303", // {"a":1,"b":2,"c":3}
		"a3616303616101616202", // {"c":3,"a":1,"b":2}
	}
	for _, h := range encodings {
		d := NewDecoder(mustHex(t, h))
		if err := d.EnterMap(); err != nil {
			t.Fatalf("%s: EnterMap: %v", h, err)
		}
		for want, label := range map[int64]string{1: "a", 2: "b", 3: "c"} {
			got, err := d.GetInt64InMapSZ(label)
			if err != nil || got != want {
				t.Fatalf("%s: %q: got %d, %v", h, label, got, err)
			}
		}
		if err := d.ExitMap(); err != nil {
			t.Fatalf("%s: ExitMap: %v", h, err)
		}
	}
}

func TestMapLookupIntegerLabels(t *testing.T) {
	// {1: h'0102', -7: "neg", 2: true}
	d := NewDecoder(mustHex(t, "a30142010226636e656702f5"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	b, err := d.GetBytesInMapN(1)
	if err != nil || len(b) != 2 || b[0] != 1 {
		t.Fatalf("label 1: %x %v", b, err)
	}
	s, err := d.GetTextInMapN(-7)
	if err != nil || s != "neg" {
		t.Fatalf("label -7: %q %v", s, err)
	}
	v, err := d.GetBoolInMapN(2)
	if err != nil || !v {
		t.Fatalf("label 2: %v %v", v, err)
	}
}

func TestMapLookupErrors(t *testing.T) {
	// duplicate label 1
	d := NewDecoder(mustHex(t, "a20102010a"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if _, err := d.GetInt64InMapN(1); !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("expected ErrDuplicateLabel, got %v", err)
	}
	if err := d.GetAndResetError(); !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("GetAndResetError: %v", err)
	}

	// a duplicate is caught even when looking for another label
	d = NewDecoder(mustHex(t, "a3010201030a04"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if _, err := d.GetInt64InMapN(10); !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("expected ErrDuplicateLabel for unrelated lookup, got %v", err)
	}

	// missing label
	d = NewDecoder(mustHex(t, "a10102"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if _, err := d.GetInt64InMapN(9); !errors.Is(err, ErrLabelNotFound) {
		t.Fatalf("expected ErrLabelNotFound, got %v", err)
	}

	// wrong value type
	d = NewDecoder(mustHex(t, "a1016161"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	_, err := d.GetInt64InMapN(1)
	if !errors.Is(err, ErrUnexpectedType) {
		t.Fatalf("expected type error, got %v", err)
	}
	var te *TypeError
	if !errors.As(err, &te) || te.Got != TextStringType {
		t.Fatalf("TypeError details: %v", err)
	}

	// lookup without entering a map
	d = NewDecoder(mustHex(t, "a10102"))
	if _, err := d.GetInt64InMapN(1); !errors.Is(err, ErrMapNotEntered) {
		t.Fatalf("expected ErrMapNotEntered, got %v", err)
	}
}

func TestMapLookupSkipsNestedContainers(t *testing.T) {
	needTextLabels(t)
	// {"a": {"x": [1,2]}, "b": 7}: finding "b" must not trip on
	// the nested structures under "a".
	d := NewDecoder(mustHex(t, "a26161a16178820102616207"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	v, err := d.GetInt64InMapSZ("b")
	if err != nil || v != 7 {
		t.Fatalf("b: %d %v", v, err)
	}
}

func TestGetItemsInMap(t *testing.T) {
	// {1: "x", 2: 5, 3: [1, 2]}
	d := NewDecoder(mustHex(t, "a3016178020503820102"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	qs := []MapQuery{
		{Label: NLabel(2), Want: Int64Type},
		{Label: NLabel(1), Want: TextStringType},
	}
	var others []Item
	err := d.GetItemsInMapWithCallback(qs, func(it Item) error {
		others = append(others, it)
		return nil
	})
	if err != nil {
		t.Fatalf("GetItemsInMapWithCallback: %v", err)
	}
	if qs[0].Item.Int != 5 || string(qs[1].Item.Bytes) != "x" {
		t.Fatalf("queries: %+v", qs)
	}
	if len(others) != 1 || others[0].Type != ArrayType || others[0].Label.Int != 3 {
		t.Fatalf("callback items: %+v", others)
	}
}

func TestGetItemsInMapCallbackError(t *testing.T) {
	d := NewDecoder(mustHex(t, "a20102028103"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	err := d.GetItemsInMapWithCallback(nil, func(Item) error {
		return errors.New("refused")
	})
	if !errors.Is(err, ErrCallbackFailed) {
		t.Fatalf("expected ErrCallbackFailed, got %v", err)
	}
}

func TestEnterArrayFromMap(t *testing.T) {
	needTextLabels(t)
	// {"a": 1, "list": [10, 11], "z": 2}
	d := NewDecoder(mustHex(t, "a3616101646c697374820a0b617a02"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if err := d.EnterArrayFromMapSZ("list"); err != nil {
		t.Fatalf("EnterArrayFromMapSZ: %v", err)
	}
	it := nextOrFatal(t, d)
	if it.Int != 10 {
		t.Fatalf("first element: %+v", it)
	}
	it = nextOrFatal(t, d)
	if it.Int != 11 {
		t.Fatalf("second element: %+v", it)
	}
	if !d.EndCheck() {
		t.Fatal("EndCheck should be true at the end of the entered array")
	}
	if err := d.ExitArray(); err != nil {
		t.Fatalf("ExitArray: %v", err)
	}
	// traversal resumes after the entry
	it = nextOrFatal(t, d)
	if it.Int != 2 || string(it.Label.Bytes) != "z" {
		t.Fatalf("after exit: %+v", it)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("ExitMap: %v", err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestEnterMapFromMap(t *testing.T) {
	needTextLabels(t)
	// {"outer": {"inner": 42}}
	d := NewDecoder(mustHex(t, "a1656f75746572a165696e6e6572182a"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if err := d.EnterMapFromMapSZ("outer"); err != nil {
		t.Fatalf("EnterMapFromMapSZ: %v", err)
	}
	v, err := d.GetInt64InMapSZ("inner")
	if err != nil || v != 42 {
		t.Fatalf("inner: %d %v", v, err)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("exit inner: %v", err)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("exit outer: %v", err)
	}
}

func TestRewind(t *testing.T) {
	d := NewDecoder(mustHex(t, "83010203"))
	if err := d.EnterArray(); err != nil {
		t.Fatalf("EnterArray: %v", err)
	}
	nextOrFatal(t, d)
	nextOrFatal(t, d)
	d.Rewind()
	it := nextOrFatal(t, d)
	if it.Int != 1 {
		t.Fatalf("after rewind: %+v", it)
	}

	// rewind with nothing entered restarts the whole input
	d = NewDecoder(mustHex(t, "0105"))
	nextOrFatal(t, d)
	d.Rewind()
	if it := nextOrFatal(t, d); it.Int != 1 {
		t.Fatalf("top-level rewind: %+v", it)
	}
}

func TestExitFromDeepInside(t *testing.T) {
	// [[1, [2]], 9]
	d := NewDecoder(mustHex(t, "828201810209"))
	if err := d.EnterArray(); err != nil {
		t.Fatalf("EnterArray: %v", err)
	}
	// descend into the inner array without entering it
	nextOrFatal(t, d) // [1, [2]]
	nextOrFatal(t, d) // 1
	// exit the entered array from two levels down
	if err := d.ExitArray(); err != nil {
		t.Fatalf("ExitArray: %v", err)
	}
	if _, err := d.GetNext(); !errors.Is(err, ErrNoMoreItems) {
		t.Fatalf("expected ErrNoMoreItems after exit, got %v", err)
	}
}

func TestEnterWrongType(t *testing.T) {
	d := NewDecoder(mustHex(t, "8101"))
	err := d.EnterMap()
	if !errors.Is(err, ErrUnexpectedType) {
		t.Fatalf("expected type error, got %v", err)
	}

	d = NewDecoder(mustHex(t, "a10102"))
	if err := d.EnterArray(); !errors.Is(err, ErrUnexpectedType) {
		t.Fatalf("expected type error, got %v", err)
	}
}

func TestIndefiniteMapLookup(t *testing.T) {
	needIndefContainers(t)
	needTextLabels(t)
	// {_ "a": 1, "b": 2}
	d := NewDecoder(mustHex(t, "bf616101616202ff"))
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	v, err := d.GetInt64InMapSZ("b")
	if err != nil || v != 2 {
		t.Fatalf("b: %d %v", v, err)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("ExitMap: %v", err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	d := NewDecoder(mustHex(t, "820102"))
	p, err := d.Peek()
	if err != nil || p.Type != ArrayType || p.Count != 2 {
		t.Fatalf("Peek: %+v %v", p, err)
	}
	it := nextOrFatal(t, d)
	if it.Type != ArrayType {
		t.Fatalf("GetNext after Peek: %+v", it)
	}
	p, err = d.Peek()
	if err != nil || p.Int != 1 {
		t.Fatalf("Peek inside: %+v %v", p, err)
	}
	if it := nextOrFatal(t, d); it.Int != 1 {
		t.Fatalf("consume after Peek: %+v", it)
	}
}

func TestNextItemSpan(t *testing.T) {
	needTags(t)
	in := mustHex(t, "82c2420102617a")
	d := NewDecoder(in)
	nextOrFatal(t, d) // array head
	start, end, err := d.NextItemSpan()
	if err != nil {
		t.Fatalf("NextItemSpan: %v", err)
	}
	// the tagged bignum spans tag head + string head + 2 bytes
	if start != 1 || end != 5 {
		t.Fatalf("span %d..%d", start, end)
	}
	// the span call must not consume
	it := nextOrFatal(t, d)
	if it.Type != PosBignumType {
		t.Fatalf("after span: %+v", it)
	}
}

func TestMapAsArrayLookupRejected(t *testing.T) {
	// {1: 2, 2: [3, 4]} surfaced as alternating items
	d := NewDecoderMode(mustHex(t, "a2010202820304"), DecodeModeMapAsArray)
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if _, err := d.GetInt64InMapN(1); !errors.Is(err, ErrMapNotEntered) {
		t.Fatalf("GetInt64InMapN: %v", err)
	}
	d = NewDecoderMode(mustHex(t, "a2010202820304"), DecodeModeMapAsArray)
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	err := d.GetItemsInMap([]MapQuery{{Label: NLabel(1)}})
	if !errors.Is(err, ErrMapNotEntered) {
		t.Fatalf("GetItemsInMap: %v", err)
	}
	// positional traversal and exit still work
	d = NewDecoderMode(mustHex(t, "a2010202820304"), DecodeModeMapAsArray)
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	for !d.EndCheck() {
		nextOrFatal(t, d)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("ExitMap: %v", err)
	}
}
