package identify

// SimplePrompt is the plain enumerated-fields prompt. It parses most
// reliably across models, so it is both the default path and the last
// resort of the enhanced path.
const SimplePrompt = `Analyze this image and identify car details. If this is a car image, provide:

1. Make (brand) of the car
2. Model of the car
3. Color of the car
4. Any visible logos, emblems, or text on the car
5. License plate number (if visible)
6. Any other text visible on the car

Please provide the information in this format:
Make: [brand]
Model: [model]
Color: [color]
Logos: [description]
License Plate: [plate or Unknown]
AI-Interpretation Summary: [<=200 chars]`

// PersonaPrompt steers the model toward distinguishing look-alike
// variants, used together with a detail crop of the badge area.
const PersonaPrompt = `Act as an expert automotive analyst. Your task is to perform a detailed forensic analysis.

You must disambiguate look-alike models (e.g., Ferrari 430 Scuderia vs 458 Italia) by focusing on:
- Tail light shape/position
- Rear diffuser/exhaust layout
- Badge text/placement
- Side intake and rear deck differences

Analyze this image and identify car details. Provide:
Make: [brand]
Model: [model]
Color: [color]
Logos: [logos/emblems/text]
License Plate: [plate if visible]
AI-Interpretation Summary: [<=200 chars]`

// RepairPrompt is the strict format-only instruction sent when a
// response came back mostly unknown: no persona, no crops.
const RepairPrompt = `Return ONLY these 6 lines in this exact order, nothing else.
Make: <brand>
Model: <model>
Color: <color>
Logos: <logos/emblems/text>
License Plate: <plate or Unknown>
AI-Interpretation Summary: <<=200 chars>`

// StrictJSONPrompt is the last structured-output attempt before falling
// back to the simple path.
const StrictJSONPrompt = `Return ONLY JSON with keys exactly: Make, Model, Color, Logos, License Plate, AI-Interpretation Summary. No prose. Fill with 'Unknown' if not visible.`

// verifyPrompt precedes the formatted best-guess record in the optional
// second verification pass.
const verifyPrompt = `Re-check the identification STRICTLY from the image. If uncertain for any field, write 'Unknown'.
Do not guess. Prefer exact text from badges/plates. Return ONLY these 6 lines, nothing else:
Make: <brand>
Model: <model>
Color: <color>
Logos: <logos/emblems/text>
License Plate: <plate or Unknown>
AI-Interpretation Summary: <<=200 chars>

Here is the initial guess (correct it if wrong):
`
