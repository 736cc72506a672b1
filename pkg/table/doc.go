// Package table reads Paradox data tables (.DB files).
//
// A table file starts with a fixed header and a field-descriptor area,
// followed by fixed-size data blocks. Each block carries a small header
// linking it to its neighbours and holds up to (BlockSize-6)/RecordSize
// record slots:
//
//	+----------------+-----------------+---------+---------+-----
//	| header (0x58)  | data header,    | block 1 | block 2 | ...
//	|                | field area      |         |         |
//	+----------------+-----------------+---------+---------+-----
//	0                                  HeaderSize
//
// Open parses the header and schema. FetchRecord and Scan decode records
// into value.Value slices. A Document only uses ReadAt on its source, so it
// can be shared between goroutines.
//
//	doc, err := table.OpenFile("CUSTOMER.DB")
//	if err != nil {
//		return err
//	}
//	defer doc.Close()
//
//	rec, err := doc.FetchRecord(0)
package table
