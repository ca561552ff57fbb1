//go:build ignore

//kage:unit pixels

package main

const Pi = 3.141592

// Uniform variables.
var Time float
var Pointer vec2
var PointerVelocity vec2
var Colors [4]vec4
var Resolution vec2

func colorRamp(t float) vec4 {
	if t < 0.25 {
		return mix(Colors[0], Colors[1], t/0.25)
	} else if t < 0.5 {
		return mix(Colors[1], Colors[2], (t-0.25)/0.25)
	} else if t < 0.75 {
		return mix(Colors[2], Colors[3], (t-0.5)/0.25)
	} else {
		return mix(Colors[3], Colors[0], (t-0.75)/0.25)
	}
}

func rotateV(v vec2, theta float) vec2 {
	c := cos(theta)
	s := sin(theta)
	return vec2(v.x*c-v.y*s, v.x*s+v.y*c)
}

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	pos := (dstPos.xy - imageDstOrigin()) / Resolution
	aspect := Resolution.x / Resolution.y

	// ripple around the pointer, stronger while it moves
	toPointer := pos - Pointer
	toPointer.x *= aspect
	dist := length(toPointer)
	speed := min(length(PointerVelocity)*60, 1)
	ripple := sin(dist*28-Time*4) * exp(-dist*5) * (0.12 + speed*0.3)

	// slow swirl, leaning toward the pointer
	rotV := pos - vec2(0.5, 0.5)
	rotV = rotateV(rotV, rotV.x+Time*0.03+(Pointer.x-0.5)*0.4)
	rotV += vec2(0.5, 0.5)

	wave := sin(rotV.x*Pi*1.5+Time*0.4)*0.5 + cos(rotV.y*Pi*2-Time*0.3)*0.5

	t := mod(pos.y*0.6+wave*0.15+ripple+Time*0.02, 1)

	return colorRamp(t)
}
