package initseq

import (
	"io"
)

// Sequence is an ordered list of records, encoded back to back with no
// header, trailer or terminator.
type Sequence struct {
	Records []Record
}

// Statically ensure that Sequence implements Codec.
var _ Codec = (*Sequence)(nil)

// DecodeSequence splits data into its records.
func DecodeSequence(data []byte) (*Sequence, error) {
	s := &Sequence{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sequence) Len() int {
	return len(s.Records)
}

// Append adds records to the end of the sequence.
func (s *Sequence) Append(records ...Record) {
	s.Records = append(s.Records, records...)
}

// Size calculates the total binary size of the sequence.
func (s *Sequence) Size() int {
	totalSize := 0
	for i := range s.Records {
		totalSize += s.Records[i].Size()
	}
	return totalSize
}

// WriteTo writes every record to writer in order.
func (s *Sequence) WriteTo(writer io.Writer) (int64, error) {
	if len(s.Records) == 0 {
		return 0, nil
	}

	w, err := NewWriter(writer)
	if err != nil {
		return 0, err
	}
	for i := range s.Records {
		w.WriteFrom(&s.Records[i])
	}
	return w.Result()
}

// ReadFrom reads records and appends them to the sequence until the reader
// returns io.EOF on a record boundary. A record cut short is an error.
func (s *Sequence) ReadFrom(reader io.Reader) (int64, error) {
	// Wrap once so every record shares the same read-ahead buffer.
	r, err := NewReader(reader)
	if err != nil {
		return 0, err
	}

	var n int64
	for {
		var record Record
		read, err := record.ReadFrom(r)
		n += read
		if err == io.EOF && read == 0 {
			// Clean EOF between records: the success termination condition.
			return n, nil
		}
		if err != nil {
			return n, err
		}
		s.Records = append(s.Records, record)
	}
}

// --- Boilerplate implementations ---

func (s *Sequence) MarshalBinary() ([]byte, error) {
	return MarshalBinaryGeneric(s)
}

func (s *Sequence) UnmarshalBinary(data []byte) error {
	s.Records = s.Records[:0]
	return UnmarshalBinaryGeneric(s, data)
}

func (s *Sequence) MarshalTo(buf []byte) (int, error) {
	return MarshalToGeneric(s, buf)
}
