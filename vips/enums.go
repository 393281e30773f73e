package vips

// Enums travel as nicknames; these types name the ones the typed call-sites
// use.

// BandFormat is a VipsBandFormat nickname.
type BandFormat string

const (
	BandFormatNotset    BandFormat = "notset"
	BandFormatUchar     BandFormat = "uchar"
	BandFormatChar      BandFormat = "char"
	BandFormatUshort    BandFormat = "ushort"
	BandFormatShort     BandFormat = "short"
	BandFormatUint      BandFormat = "uint"
	BandFormatInt       BandFormat = "int"
	BandFormatFloat     BandFormat = "float"
	BandFormatComplex   BandFormat = "complex"
	BandFormatDouble    BandFormat = "double"
	BandFormatDpcomplex BandFormat = "dpcomplex"
)

// Interpretation is a VipsInterpretation nickname.
type Interpretation string

const (
	InterpretationMultiband Interpretation = "multiband"
	InterpretationBW        Interpretation = "b-w"
	InterpretationHistogram Interpretation = "histogram"
	InterpretationLab       Interpretation = "lab"
	InterpretationCmyk      Interpretation = "cmyk"
	InterpretationSRGB      Interpretation = "srgb"
	InterpretationRGB16     Interpretation = "rgb16"
	InterpretationGrey16    Interpretation = "grey16"
	InterpretationMatrix    Interpretation = "matrix"
)

// Direction is a VipsDirection nickname.
type Direction string

const (
	DirectionHorizontal Direction = "horizontal"
	DirectionVertical   Direction = "vertical"
)

// Extend is a VipsExtend nickname.
type Extend string

const (
	ExtendBlack      Extend = "black"
	ExtendCopy       Extend = "copy"
	ExtendRepeat     Extend = "repeat"
	ExtendMirror     Extend = "mirror"
	ExtendWhite      Extend = "white"
	ExtendBackground Extend = "background"
)

// OperationMath is a VipsOperationMath nickname.
type OperationMath string

const (
	OperationMathSin   OperationMath = "sin"
	OperationMathCos   OperationMath = "cos"
	OperationMathTan   OperationMath = "tan"
	OperationMathLog   OperationMath = "log"
	OperationMathLog10 OperationMath = "log10"
	OperationMathExp   OperationMath = "exp"
	OperationMathExp10 OperationMath = "exp10"
)

// OperationRelational is a VipsOperationRelational nickname.
type OperationRelational string

const (
	OperationRelationalEqual  OperationRelational = "equal"
	OperationRelationalNoteq  OperationRelational = "noteq"
	OperationRelationalLess   OperationRelational = "less"
	OperationRelationalLesseq OperationRelational = "lesseq"
	OperationRelationalMore   OperationRelational = "more"
	OperationRelationalMoreeq OperationRelational = "moreeq"
)
