package codec_test

import (
	"fmt"
	"log"

	"github.com/ssargent/ecudatalog/pkg/codec"
)

// ExampleFlashProFrame demonstrates encoding and decoding a frame record
func ExampleFlashProFrame() {
	frame := &codec.FlashProFrame{FrameNumber: 1, Offset: 1250}
	frame.RPM = 6850
	frame.Lambda = 32768
	frame.Switches.VTEC = true

	encoded, err := frame.Encode(codec.FlashProFrameSize)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Encoded %d bytes\n", len(encoded))

	decoded, err := codec.DecodeFlashProFrame(encoded)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("RPM: %d\n", decoded.RPM)
	fmt.Printf("Time: %s\n", decoded.Time())
	fmt.Printf("Lambda: %.2f\n", decoded.LambdaRatio())
	fmt.Printf("VTEC: %t\n", decoded.Switches.VTEC)

	// Output:
	// Encoded 64 bytes
	// RPM: 6850
	// Time: 1.25s
	// Lambda: 1.00
	// VTEC: true
}

// ExampleParseIdentifier demonstrates sniffing the family of a file
func ExampleParseIdentifier() {
	for _, head := range []string{"FPDL\x00\x00", "KFLASH", "OPDL\x01\x00"} {
		id, err := codec.ParseIdentifier([]byte(head))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: %s compressed=%t\n", id, id.Family(), id.Compressed())
	}

	_, err := codec.ParseIdentifier([]byte("GIF89a"))
	fmt.Println(err != nil)

	// Output:
	// FPDL: flashpro compressed=false
	// KFLASH: kpro compressed=false
	// OPDL: flashpro compressed=true
	// true
}
