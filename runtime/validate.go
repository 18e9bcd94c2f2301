package cbor

// skipItem advances the cursor past one encoded data item, tags and
// nested contents included, checking well-formedness along the way.
// depth is the nesting level already open around the item.
func skipItem(c *cursor, depth int) error {
	for {
		major, ai, arg, err := c.readHead()
		if err != nil {
			return err
		}
		if major == majorTypeTag {
			// Tag content is the next item.
			continue
		}
		switch major {
		case majorTypeUint, majorTypeNegInt:
			return nil

		case majorTypeBytes, majorTypeText:
			if ai != addInfoIndefinite {
				return c.skipN(arg)
			}
			for {
				b, ok := c.peekByte()
				if !ok {
					return ErrHitEnd
				}
				if b == breakByte {
					c.off++
					return nil
				}
				cm, cai, carg, err := c.readHead()
				if err != nil {
					return err
				}
				if cm != major || cai == addInfoIndefinite {
					return ErrIndefiniteStringChunk
				}
				if err := c.skipN(carg); err != nil {
					return err
				}
			}

		case majorTypeArray, majorTypeMap:
			if depth >= MaxNestingDepth {
				return ErrNestingTooDeep
			}
			if ai == addInfoIndefinite {
				n := 0
				for {
					b, ok := c.peekByte()
					if !ok {
						return ErrHitEnd
					}
					if b == breakByte {
						if major == majorTypeMap && n%2 != 0 {
							return ErrBadBreak
						}
						c.off++
						return nil
					}
					if err := skipItem(c, depth+1); err != nil {
						return err
					}
					n++
				}
			}
			if arg > maxContainerCount {
				return ErrArrayTooLong
			}
			n := arg
			if major == majorTypeMap {
				n *= 2
			}
			for i := uint64(0); i < n; i++ {
				if err := skipItem(c, depth+1); err != nil {
					return err
				}
			}
			return nil

		case majorTypeSimple:
			if ai == addInfoIndefinite {
				return ErrBadBreak
			}
			if ai == addInfoUint8 && arg < 32 {
				return ErrBadTypeSeven
			}
			return nil
		}
		return ErrUnsupported
	}
}

// Validate checks that in holds exactly one well-formed encoded data
// item. It does not descend into semantics: tags, label types and
// duplicate map keys are not judged here.
func Validate(in []byte) error {
	c := cursor{in: in}
	if err := skipItem(&c, 0); err != nil {
		return err
	}
	if c.remaining() > 0 {
		return ErrExtraBytes
	}
	return nil
}
