//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"godim/core"
)

const (
	displayWidth  = 128
	displayHeight = 32

	barTop    = 20
	barBottom = 30
)

var (
	display   ssd1306.Device
	displayOK bool

	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// initDisplay brings up the status OLED on I2C0 (SDA GP4, SCL GP5). The
// board works without one; failures just disable updates.
func initDisplay() {
	err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400000,
		SDA:       machine.GPIO4,
		SCL:       machine.GPIO5,
	})
	if err != nil {
		return
	}

	display = ssd1306.NewI2C(machine.I2C0)
	display.Configure(ssd1306.Config{
		Width:   displayWidth,
		Height:  displayHeight,
		Address: ssd1306.Address_128_32,
	})
	display.ClearDisplay()
	displayOK = true
}

// updateDisplay renders the output percent and a power bar.
func updateDisplay(snap core.Snapshot) {
	if !displayOK {
		return
	}

	display.ClearBuffer()

	label := utoa(uint32(snap.Percent)) + "%"
	if snap.Override {
		label += " HOST"
	}
	tinyfont.WriteLine(&display, &proggy.TinySZ8pt7b, 0, 14, label, white)

	// Bar outline marks the full range even when dark.
	for x := int16(0); x < displayWidth; x++ {
		display.SetPixel(x, barTop, white)
		display.SetPixel(x, barBottom, white)
	}
	fill := int16(uint32(snap.Percent) * displayWidth / 100)
	for y := int16(barTop); y <= barBottom; y++ {
		for x := int16(0); x < fill; x++ {
			display.SetPixel(x, y, white)
		}
	}

	display.Display()
}

// utoa converts without strconv, which pulls in too much for this target.
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
