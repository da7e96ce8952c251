package dictionary

import "github.com/orthancsoft/dicomcodec/tag"

// privateEntries is the embedded private-tag dictionary: a small sample of
// real vendor private blocks, enough to exercise the private-creator
// lookup path end to end. Sites with a richer private dictionary load it
// via DICOMCODEC_DICTIONARY_PATH.
var privateEntries = []Entry{
	{tag.New(0x0009, 0x0010), tag.LO, "GEMSIdentPrivateCreator", 1, 1, "GEMS_IDEN_01"},
	{tag.New(0x0009, 0x1001), tag.LO, "GEMSFullFidelity", 1, 1, "GEMS_IDEN_01"},

	{tag.New(0x0019, 0x0010), tag.LO, "SiemensMRHeaderPrivateCreator", 1, 1, "SIEMENS MR HEADER"},
	{tag.New(0x0019, 0x1008), tag.CS, "SiemensPulseSequenceName", 1, 1, "SIEMENS MR HEADER"},
}
