package compiler

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// UpvalueDescriptor records where a closure's captured upvalue comes from:
// a slot in the immediately enclosing call frame (IsLocal) or an upvalue
// already captured by that enclosing function.
type UpvalueDescriptor struct {
	Index   int
	IsLocal bool
}

// DefaultValue is a compile-time-constant default parameter value; the VM
// materializes it fresh at every call that omits the corresponding argument.
type DefaultValue struct {
	HasValue bool
	Kind     byte // 'i', 'f', 'b', 's' for int/float/bool/string, 0 if none
	Int      int64
	Float    float64
	Bool     bool
	Str      string
}

// FunctionPrototype is one compiled function/method/initializer/closure
// body plus everything the VM needs to call it.
type FunctionPrototype struct {
	Name            string
	ParamNames      []string
	ParamLabels     []string
	ParamDefaults   []DefaultValue
	HasReceiver     bool
	IsInitializer   bool
	IsMutating      bool
	IsOverride      bool
	Upvalues        []UpvalueDescriptor
	Code            Instructions
	LineInfo        []int
	MaxStackDepth   int
}

// ProtocolDescriptor records one declared protocol's requirements.
type ProtocolDescriptor struct {
	Name              string
	Inherits          []string
	MethodNames       []string
	PropertyNames     []string
}

// TypeKindFlag distinguishes class/struct/enum/interface in TypeDefinition.Flags.
const (
	TypeFlagClass = 1 << iota
	TypeFlagStruct
	TypeFlagEnum
	TypeFlagInterface
	TypeFlagPublic
	TypeFlagPrivate
)

// TypeDefinition is the reflection-facing record for one declared type,
// built by the compiler's metadata pass (spec §4.5.3).
type TypeDefinition struct {
	Name       string
	Flags      int
	BaseType   string
	Interfaces []string

	FieldStart, FieldCount       int
	MethodStart, MethodCount     int
	PropertyStart, PropertyCount int
}

// MethodDefinition method flag bits.
const (
	MethodFlagStatic = 1 << iota
	MethodFlagVirtual
	MethodFlagMutating
	MethodFlagOverride
)

// MethodDefinition is one method's reflection record: its packed
// signature offset into SignatureBlob and the index of its compiled body
// in MethodBodies.
type MethodDefinition struct {
	Name            string
	Flags           int
	SignatureOffset int
	BodyIndex       int
}

// FieldDefinition is one stored field's reflection record.
type FieldDefinition struct {
	Name   string
	Flags  int
	TypeID int
}

// PropertyDefinition is one computed/observed property's reflection record.
type PropertyDefinition struct {
	Name         string
	Flags        int
	TypeID       int
	GetterMethod int
	SetterMethod int // -1 if none
}

// MethodBody is one compiled body referenced from MethodDefinition.BodyIndex
// or directly as a FunctionPrototype's code (top-level/global functions use
// the FunctionPrototype directly; class/struct methods resolve through
// MethodBodies so multiple methods sharing metadata can share a body slot).
type MethodBody struct {
	Code          Instructions
	LineInfo      []int
	MaxStackDepth int
}

// Assembly is the compiled artifact passed from the compiler to the VM: a
// self-contained, read-only program plus every table needed for dynamic
// dispatch, reflection, and `is`/`as`.
type Assembly struct {
	Code     Instructions
	LineInfo []int

	Constants []any
	Strings   []string

	Functions []FunctionPrototype
	Protocols []ProtocolDescriptor

	TypeDefinitions     []TypeDefinition
	MethodDefinitions   []MethodDefinition
	FieldDefinitions    []FieldDefinition
	PropertyDefinitions []PropertyDefinition
	SignatureBlob       []byte
	MethodBodies        []MethodBody

	// EntryFunction indexes Functions for a synthesized `main()` call, or
	// -1 if execution should simply start at Code (spec §4.5.4).
	EntryFunction int
}

const (
	assemblyMagic   = "SSBC"
	assemblyVersion = uint32(1)
)

// WriteAssembly serializes an Assembly to the on-disk format described in
// spec §6: magic bytes, version, then each section length-prefixed.
func WriteAssembly(w io.Writer, asm *Assembly) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(assemblyMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, assemblyVersion); err != nil {
		return err
	}

	writeBytes := func(b []byte) error {
		if err := binary.Write(bw, binary.BigEndian, uint32(len(b))); err != nil {
			return err
		}
		_, err := bw.Write(b)
		return err
	}
	writeStrings := func(ss []string) error {
		if err := binary.Write(bw, binary.BigEndian, uint32(len(ss))); err != nil {
			return err
		}
		for _, s := range ss {
			if err := writeBytes([]byte(s)); err != nil {
				return err
			}
		}
		return nil
	}
	writeInts := func(is []int) error {
		if err := binary.Write(bw, binary.BigEndian, uint32(len(is))); err != nil {
			return err
		}
		for _, i := range is {
			if err := binary.Write(bw, binary.BigEndian, int64(i)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeBytes(asm.Code); err != nil {
		return err
	}
	if err := writeInts(asm.LineInfo); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(asm.Constants))); err != nil {
		return err
	}
	for _, c := range asm.Constants {
		switch v := c.(type) {
		case int64:
			bw.WriteByte('i')
			binary.Write(bw, binary.BigEndian, v)
		case float64:
			bw.WriteByte('f')
			binary.Write(bw, binary.BigEndian, v)
		case bool:
			bw.WriteByte('b')
			if v {
				bw.WriteByte(1)
			} else {
				bw.WriteByte(0)
			}
		default:
			return fmt.Errorf("assembly: unsupported constant type %T", c)
		}
	}
	if err := writeStrings(asm.Strings); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(asm.Functions))); err != nil {
		return err
	}
	for _, f := range asm.Functions {
		writeBytes([]byte(f.Name))
		binary.Write(bw, binary.BigEndian, uint32(len(f.ParamNames)))
		for _, p := range f.ParamNames {
			writeBytes([]byte(p))
		}
		for _, l := range f.ParamLabels {
			writeBytes([]byte(l))
		}
		var flags byte
		if f.HasReceiver {
			flags |= 1
		}
		if f.IsInitializer {
			flags |= 2
		}
		if f.IsMutating {
			flags |= 4
		}
		if f.IsOverride {
			flags |= 8
		}
		bw.WriteByte(flags)
		writeBytes(f.Code)
		writeInts(f.LineInfo)
		binary.Write(bw, binary.BigEndian, uint32(f.MaxStackDepth))
	}
	if err := binary.Write(bw, binary.BigEndian, int32(asm.EntryFunction)); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadAssembly deserializes an Assembly previously written by WriteAssembly,
// failing with an *assembly version mismatch* description if the on-disk
// version doesn't match what this build writes (spec §6: "version mismatch
// must be detected and reported").
func ReadAssembly(r io.Reader) (*Assembly, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(assemblyMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, err
	}
	if string(magic) != assemblyMagic {
		return nil, fmt.Errorf("assembly: bad magic bytes")
	}
	var version uint32
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != assemblyVersion {
		return nil, fmt.Errorf("assembly: version mismatch (got %d, want %d)", version, assemblyVersion)
	}

	readBytes := func() ([]byte, error) {
		var n uint32
		if err := binary.Read(br, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(br, b); err != nil {
			return nil, err
		}
		return b, nil
	}
	readStrings := func() ([]string, error) {
		var n uint32
		if err := binary.Read(br, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		out := make([]string, n)
		for i := range out {
			b, err := readBytes()
			if err != nil {
				return nil, err
			}
			out[i] = string(b)
		}
		return out, nil
	}
	readInts := func() ([]int, error) {
		var n uint32
		if err := binary.Read(br, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		out := make([]int, n)
		for i := range out {
			var v int64
			if err := binary.Read(br, binary.BigEndian, &v); err != nil {
				return nil, err
			}
			out[i] = int(v)
		}
		return out, nil
	}

	asm := &Assembly{}
	code, err := readBytes()
	if err != nil {
		return nil, err
	}
	asm.Code = Instructions(code)
	if asm.LineInfo, err = readInts(); err != nil {
		return nil, err
	}

	var constCount uint32
	if err := binary.Read(br, binary.BigEndian, &constCount); err != nil {
		return nil, err
	}
	asm.Constants = make([]any, constCount)
	for i := range asm.Constants {
		tag, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case 'i':
			var v int64
			binary.Read(br, binary.BigEndian, &v)
			asm.Constants[i] = v
		case 'f':
			var v float64
			binary.Read(br, binary.BigEndian, &v)
			asm.Constants[i] = v
		case 'b':
			v, _ := br.ReadByte()
			asm.Constants[i] = v != 0
		default:
			return nil, fmt.Errorf("assembly: unknown constant tag %q", tag)
		}
	}
	if asm.Strings, err = readStrings(); err != nil {
		return nil, err
	}

	var fnCount uint32
	if err := binary.Read(br, binary.BigEndian, &fnCount); err != nil {
		return nil, err
	}
	asm.Functions = make([]FunctionPrototype, fnCount)
	for i := range asm.Functions {
		f := &asm.Functions[i]
		name, err := readBytes()
		if err != nil {
			return nil, err
		}
		f.Name = string(name)
		var paramCount uint32
		if err := binary.Read(br, binary.BigEndian, &paramCount); err != nil {
			return nil, err
		}
		f.ParamNames = make([]string, paramCount)
		for j := range f.ParamNames {
			b, err := readBytes()
			if err != nil {
				return nil, err
			}
			f.ParamNames[j] = string(b)
		}
		f.ParamLabels = make([]string, paramCount)
		for j := range f.ParamLabels {
			b, err := readBytes()
			if err != nil {
				return nil, err
			}
			f.ParamLabels[j] = string(b)
		}
		flags, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		f.HasReceiver = flags&1 != 0
		f.IsInitializer = flags&2 != 0
		f.IsMutating = flags&4 != 0
		f.IsOverride = flags&8 != 0
		code, err := readBytes()
		if err != nil {
			return nil, err
		}
		f.Code = Instructions(code)
		if f.LineInfo, err = readInts(); err != nil {
			return nil, err
		}
		var maxDepth uint32
		if err := binary.Read(br, binary.BigEndian, &maxDepth); err != nil {
			return nil, err
		}
		f.MaxStackDepth = int(maxDepth)
	}

	var entry int32
	if err := binary.Read(br, binary.BigEndian, &entry); err != nil {
		return nil, err
	}
	asm.EntryFunction = int(entry)
	return asm, nil
}
