package classfile

// Opcodes that the code scanner decodes explicitly.
const (
	opLdc          = 0x12
	opLdcW         = 0x13
	opIinc         = 0x84
	opTableswitch  = 0xaa
	opLookupswitch = 0xab
	opInvokestatic = 0xb8
	opWide         = 0xc4
)

// operandLength holds the number of operand bytes following each opcode.
// Variable length instructions (tableswitch, lookupswitch, wide) are
// decoded separately and have no entry here.
var operandLength [256]int

func init() {
	set := func(n int, ops ...int) {
		for _, op := range ops {
			operandLength[op] = n
		}
	}
	span := func(n, from, to int) {
		for op := from; op <= to; op++ {
			operandLength[op] = n
		}
	}

	// bipush, ldc, ret, newarray
	set(1, 0x10, opLdc, 0xa9, 0xbc)
	// iload .. aload and istore .. astore
	span(1, 0x15, 0x19)
	span(1, 0x36, 0x3a)

	// sipush, ldc_w, ldc2_w, iinc, new, anewarray, checkcast, instanceof, ifnull, ifnonnull
	set(2, 0x11, opLdcW, 0x14, opIinc, 0xbb, 0xbd, 0xc0, 0xc1, 0xc6, 0xc7)
	// conditional branches, goto, jsr
	span(2, 0x99, 0xa8)
	// field access, invokevirtual, invokespecial, invokestatic
	span(2, 0xb2, opInvokestatic)

	set(3, 0xc5) // multianewarray

	// invokeinterface, invokedynamic, goto_w, jsr_w
	set(4, 0xb9, 0xba, 0xc8, 0xc9)
}
